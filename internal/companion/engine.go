// Package companion implements the scripted conversation engine: crisis
// screening, mood classification, stage-aware response selection and
// anti-repetition rephrasing over a single session's state.
package companion

import (
	"log/slog"
	"strings"

	"github.com/ashureev/mindbloom/internal/domain"
)

// Engine runs the per-message pipeline. It holds no session state of its own
// and is safe for concurrent use across distinct sessions.
type Engine struct {
	risk      *RiskClassifier
	mood      *MoodClassifier
	selector  *Selector
	rephraser *Rephraser
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithChooser sets the random source used by the rephraser.
func WithChooser(choose Chooser) Option {
	return func(e *Engine) {
		e.rephraser = NewRephraser(choose)
	}
}

// WithCatalog replaces the response catalog.
func WithCatalog(c Catalog) Option {
	return func(e *Engine) {
		e.selector = NewSelector(c)
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine builds an engine with the built-in tables.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		risk:      NewRiskClassifier(),
		mood:      NewMoodClassifier(),
		selector:  NewSelector(DefaultCatalog()),
		rephraser: NewRephraser(nil),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one turn through the pipeline.
type Result struct {
	Reply domain.Reply
	Risk  domain.RiskAssessment
	Mood  domain.MoodResult
}

// GenerateResponse appends userMessage to sess and produces the reply.
func (e *Engine) GenerateResponse(sess *Session, userMessage string) (Result, error) {
	risk := e.Screen(sess, userMessage)
	if risk.High() {
		return Result{Reply: SafetyReply(), Risk: risk}, nil
	}
	res, err := e.Compose(sess)
	res.Risk = risk
	return res, err
}

// Screen appends the message and runs the crisis check. On high risk the
// history is trimmed and nothing else about the session changes.
func (e *Engine) Screen(sess *Session, userMessage string) domain.RiskAssessment {
	sess.Append(domain.UserMessage(userMessage))
	risk := e.risk.CheckRisk(userMessage)
	if risk.High() {
		e.logger.Warn("crisis language detected", "risk_level", risk.RiskLevel)
		sess.Trim()
	}
	return risk
}

// Compose classifies the latest user message in sess, selects and
// de-duplicates a reply, and records it.
func (e *Engine) Compose(sess *Session) (Result, error) {
	latest := latestUserMessage(sess)
	mood := e.mood.Assess(latest, sess.messages)

	option, err := e.selector.Suggest(mood, sess)
	if err != nil {
		return Result{Mood: mood}, err
	}

	reply := option.Reply()
	if sess.HasUsed(reply.Response) {
		reply = e.rephraser.Rephrase(reply, mood)
		e.logger.Debug("rephrased repeated response", "mood", mood.Tag)
	}
	e.Record(sess, reply)

	return Result{Reply: reply, Mood: mood}, nil
}

// Record does the post-selection bookkeeping for a reply produced by any
// source: exchange transcript, anti-repetition set, grounding flag, follow-up
// and history trim.
func (e *Engine) Record(sess *Session, reply domain.Reply) {
	sess.recordExchange(latestUserMessage(sess), reply.Response)
	sess.MarkUsed(reply.Response)
	if strings.Contains(strings.ToLower(reply.Response), "grounding") {
		sess.lastGroundingOffered = true
	}
	if reply.FollowUp != "" {
		sess.lastFollowUpQuestion = reply.FollowUp
	}
	sess.Trim()
}

// CheckRisk exposes the crisis classifier for callers that screen before
// delegating to another response source.
func (e *Engine) CheckRisk(message string) domain.RiskAssessment {
	return e.risk.CheckRisk(message)
}

// Assess exposes the mood classifier.
func (e *Engine) Assess(message string) domain.MoodResult {
	return e.mood.Assess(message, nil)
}

func latestUserMessage(sess *Session) string {
	for i := len(sess.messages) - 1; i >= 0; i-- {
		if sess.messages[i].Role == domain.RoleUser {
			return sess.messages[i].Content
		}
	}
	return ""
}
