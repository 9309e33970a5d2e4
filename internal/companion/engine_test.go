package companion

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/mindbloom/internal/domain"
)

func newTestEngine(opts ...Option) *Engine {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewEngine(opts...)
}

func TestGenerateResponseCrisis(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	sess := NewSession()

	res, err := e.GenerateResponse(sess, "I lost my job and I want to die")
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, res.Risk.RiskLevel)
	assert.Equal(t, SafetyMessage, res.Reply.Response)
	assert.Empty(t, res.Reply.FollowUp)

	assert.Len(t, sess.Messages(), 1, "crisis message is still kept in history")
	assert.Zero(t, sess.UsedCount(), "crisis turns do not touch the used-response set")
	assert.Empty(t, sess.Exchange(), "crisis turns are not part of the exchange")
}

func TestGenerateResponseCrisisKeepsHistoryBounded(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	sess := NewSession()
	for i := 1; i <= 11; i++ {
		_, err := e.GenerateResponse(sess, fmt.Sprintf("I want to die %d", i))
		require.NoError(t, err)
	}

	msgs := sess.Messages()
	require.Len(t, msgs, historyKeep)
	assert.Equal(t, "I want to die 11", msgs[len(msgs)-1].Content)
}

func TestGenerateResponseRecordsExchange(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	sess := NewSession()

	first, err := e.GenerateResponse(sess, "I feel anxious")
	require.NoError(t, err)
	_, err = e.GenerateResponse(sess, "I want to die")
	require.NoError(t, err)
	second, err := e.GenerateResponse(sess, "I'm so stressed")
	require.NoError(t, err)

	assert.Equal(t, []domain.Message{
		domain.UserMessage("I feel anxious"),
		{Role: domain.RoleAgent, Content: first.Reply.Response},
		domain.UserMessage("I'm so stressed"),
		{Role: domain.RoleAgent, Content: second.Reply.Response},
	}, sess.Exchange())
}

func TestGenerateResponseStressNeverRepeats(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	sess := NewSession()
	catalog := DefaultCatalog()[domain.MoodStress]

	var got []string
	for range 4 {
		res, err := e.GenerateResponse(sess, "I'm so stressed")
		require.NoError(t, err)
		assert.Equal(t, domain.MoodStress, res.Mood.Tag)
		got = append(got, res.Reply.Response)
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, catalog[i].Response, got[i])
	}
	for i := 0; i < 3; i++ {
		assert.NotEqual(t, got[i], got[3])
		assert.NotEqual(t, catalog[i].Response, got[3])
	}
}

func TestGenerateResponseJobLossStageCycle(t *testing.T) {
	t.Parallel()

	e := newTestEngine(WithChooser(fixedChooser(0)))
	sess := NewSession()
	ladder := DefaultCatalog()[domain.MoodJobLoss]

	want := []string{
		ladder[0].Response,
		ladder[1].Response,
		ladder[2].Response,
		"Understandably, " + ladder[0].Response,
	}
	for turn, w := range want {
		res, err := e.GenerateResponse(sess, "I lost my job")
		require.NoError(t, err)
		require.Equal(t, domain.MoodJobLoss, res.Mood.Tag)
		assert.Equal(t, w, res.Reply.Response, "turn %d", turn+1)
	}
}

func TestGenerateResponseFinancialStageCycle(t *testing.T) {
	t.Parallel()

	e := newTestEngine(WithChooser(fixedChooser(3)))
	sess := NewSession()
	ladder := DefaultCatalog()[domain.MoodFinancialStress]

	for i := 0; i < 3; i++ {
		res, err := e.GenerateResponse(sess, "I lost 2000 dollars")
		require.NoError(t, err)
		assert.Equal(t, ladder[i], domain.ResponseOption{Response: res.Reply.Response, FollowUp: res.Reply.FollowUp})
	}

	res, err := e.GenerateResponse(sess, "I lost 2000 dollars")
	require.NoError(t, err)
	assert.Equal(t, ladder[0].Response+normalizingPostfix, res.Reply.Response)
	assert.Equal(t, ladder[0].FollowUp, res.Reply.FollowUp)
}

func TestResetReproducesFreshSession(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	sess := NewSession()
	fresh, err := e.GenerateResponse(NewSession(), "I feel anxious")
	require.NoError(t, err)

	for range 5 {
		_, err := e.GenerateResponse(sess, "I feel anxious")
		require.NoError(t, err)
	}
	sess.Reset()

	again, err := e.GenerateResponse(sess, "I feel anxious")
	require.NoError(t, err)
	assert.Equal(t, fresh.Reply, again.Reply)
	assert.Equal(t, 0, Stage(sess))
}

func TestGenerateResponseTruncatesHistory(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	sess := NewSession()
	for i := 1; i <= 11; i++ {
		_, err := e.GenerateResponse(sess, fmt.Sprintf("note %d", i))
		require.NoError(t, err)
	}

	msgs := sess.Messages()
	require.LessOrEqual(t, len(msgs), 5)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("note %d", 11-len(msgs)+i+1), m.Content)
	}
}

func TestGenerateResponseEmptyMessageIsNeutral(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	res, err := e.GenerateResponse(NewSession(), "  ")
	require.NoError(t, err)
	assert.Equal(t, domain.MoodNeutral, res.Mood.Tag)
	assert.Equal(t, DefaultCatalog()[domain.MoodNeutral][0].Response, res.Reply.Response)
}

func TestGenerateResponseTracksGroundingAndFollowUp(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	catalog[domain.MoodNeutral] = []domain.ResponseOption{{
		Response: "Would a Grounding moment help?",
		FollowUp: "Shall we try?",
	}}
	e := newTestEngine(WithCatalog(catalog))
	sess := NewSession()

	_, err := e.GenerateResponse(sess, "hello")
	require.NoError(t, err)
	assert.True(t, sess.LastGroundingOffered())
	assert.Equal(t, "Shall we try?", sess.LastFollowUpQuestion())
}

func TestGenerateResponseMissingCatalog(t *testing.T) {
	t.Parallel()

	e := newTestEngine(WithCatalog(Catalog{}))
	_, err := e.GenerateResponse(NewSession(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}
