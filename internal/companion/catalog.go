package companion

import "github.com/ashureev/mindbloom/internal/domain"

// Catalog maps each mood tag to its ordered response options. Options are
// never mutated after construction.
type Catalog map[domain.MoodTag][]domain.ResponseOption

// DefaultCatalog returns the built-in response ladders. job_loss and
// financial_stress entries are stage-indexed; the rest are first-fit.
func DefaultCatalog() Catalog {
	return Catalog{
		domain.MoodJobLoss: {
			{
				Response: "Losing a job can feel like losing part of your identity and routine. It's completely normal to feel this way.",
				FollowUp: "What aspects of your previous job will you miss the most?",
			},
			{
				Response: "This transition is challenging, but it also opens up new possibilities. Your skills and experience are still valuable.",
				FollowUp: "What's one strength or skill you developed in your previous role that you're proud of?",
			},
			{
				Response: "Job loss affects so many areas of life - finances, self-esteem, daily structure. It's okay to grieve this loss.",
				FollowUp: "What's one small thing you can do today to take care of yourself during this transition?",
			},
		},
		domain.MoodFinancialStress: {
			{
				Response: "Losing money, especially as a student, can feel overwhelming. The amount might seem small to others, but it represents your hard work and hopes.",
				FollowUp: "What was this money meant for? Understanding that might help process the loss.",
			},
			{
				Response: "It's completely valid to feel this way. Financial setbacks can shake our confidence and make us question our decisions.",
				FollowUp: "Would it help to talk about what this experience has taught you, even if it's painful?",
			},
			{
				Response: "This situation is tough, but it doesn't define you. Many successful people have faced similar setbacks and learned from them.",
				FollowUp: "What's one small step you could take to move forward, even if it's just acknowledging how you feel?",
			},
		},
		domain.MoodStress: {
			{
				Response: "This pressure you're feeling is real and valid. It's okay to acknowledge that it's heavy right now.",
				FollowUp: "What's one thing that usually helps you feel a little lighter, even if just for a moment?",
			},
			{
				Response: "When stress builds up, it can feel like too much to handle. That's a normal reaction to overwhelming situations.",
				FollowUp: "Would it help to break down what's stressing you into smaller, more manageable pieces?",
			},
			{
				Response: "Your body and mind are responding to real pressure. This isn't weakness - it's a sign you care deeply.",
				FollowUp: "What's something kind you could do for yourself right now?",
			},
		},
		domain.MoodAnxiety: {
			{
				Response: "Anxiety can make everything feel more intense. What you're experiencing is your system trying to protect you.",
				FollowUp: "Where do you feel this anxiety most in your body? Sometimes naming it can help.",
			},
			{
				Response: "These worried thoughts are understandable, but they don't have to control you. You're stronger than your anxiety.",
				FollowUp: "What's one small, concrete thing you can focus on right now to ground yourself?",
			},
			{
				Response: "It's tough when anxious thoughts spiral. Remember, feelings are temporary, even when they feel overwhelming.",
				FollowUp: "What's something in your environment right now that feels safe or comforting?",
			},
		},
		domain.MoodSadness: {
			{
				Response: "Sadness has a way of making everything feel heavier. It's okay to sit with these feelings for a while.",
				FollowUp: "What's one small thing that usually brings you comfort, even if it's just for a few minutes?",
			},
			{
				Response: "When we feel down, it can be hard to see beyond the sadness. That doesn't mean it will last forever.",
				FollowUp: "Would it help to write down what you're feeling, just to get it out of your head?",
			},
			{
				Response: "This sadness is part of your journey, not the whole story. Be gentle with yourself right now.",
				FollowUp: "What's one thing you've overcome in the past that shows your strength?",
			},
		},
		domain.MoodFrustration: {
			{
				Response: "Frustration is often a sign that something matters to you. It's okay to feel this strongly.",
				FollowUp: "What's the core issue that's frustrating you the most?",
			},
			{
				Response: "When we're frustrated, it can help to channel that energy into understanding what we really want.",
				FollowUp: "What's one small change that might make this situation feel better?",
			},
			{
				Response: "This frustration won't last forever. It's a signal, not a life sentence.",
				FollowUp: "What's something you can appreciate about yourself, even in this frustrating moment?",
			},
		},
		domain.MoodNeutral: {
			{
				Response: "I'm here to listen. You can share whatever's on your mind.",
				FollowUp: "Is there something specific you'd like to talk about today?",
			},
			{
				Response: "This is a safe space. What you share here matters.",
				FollowUp: "What's been on your mind lately?",
			},
			{
				Response: "I'm listening. Take your time.",
				FollowUp: "Would you like to share more about how you're feeling?",
			},
		},
	}
}
