// Package assistant answers help questions from a fixed keyword table.
package assistant

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrEmptyMessage = errors.New("message is empty")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type entry struct {
	keyword string
	reply   string
}

// Checked in order; the first keyword contained in the question wins.
var replies = []entry{
	{
		keyword: "how do i repay?",
		reply: "Repayments are made directly through your connected Solana wallet. When a payment is due, " +
			"you'll receive a notification. Click 'Make Payment' in your dashboard, confirm the transaction " +
			"in your wallet, and you're done.",
	},
	{
		keyword: "what is drought cover?",
		reply: "Drought cover is parametric insurance that protects your loan if rainfall falls below 40% of " +
			"the seasonal average for 30 consecutive days. When it triggers, a payout is made automatically " +
			"without filing a claim.",
	},
	{
		keyword: "explain apr vs apy",
		reply: "APR is the simple interest rate over a year. APY includes compounding. SeedFlow loans use APR: " +
			"a 10% APR on a $100 loan means $10 interest over a year, regardless of payment frequency.",
	},
}

const (
	defaultReply = "I don't have specific information about that. Could you try asking about loan " +
		"repayments, insurance coverage, or interest rates?"
	welcome = "Hello! I'm SeedFlow's assistant. How can I help you today?"
)

type Assistant struct {
	newID func() string
}

func New() *Assistant { return &Assistant{newID: uuid.NewString} }

func (a *Assistant) Welcome() Message {
	return Message{ID: "welcome", Role: RoleAssistant, Content: welcome}
}

// Reply returns the question echoed as a user message and the answer.
func (a *Assistant) Reply(question string) (Message, Message, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return Message{}, Message{}, ErrEmptyMessage
	}
	user := Message{ID: a.newID(), Role: RoleUser, Content: q}
	return user, Message{ID: a.newID(), Role: RoleAssistant, Content: Lookup(q)}, nil
}

// Lookup finds the canned answer for a question.
func Lookup(question string) string {
	q := strings.ToLower(question)
	for _, e := range replies {
		if strings.Contains(q, e.keyword) {
			return e.reply
		}
	}
	return defaultReply
}
