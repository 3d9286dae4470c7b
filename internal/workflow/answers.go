package workflow

import (
	"fmt"
	"sync"

	"github.com/spigell/assessment-flow/internal/assessment"
)

// AnswerBuffer holds the candidate's code per question index. Each slot
// starts with the question's starter code.
type AnswerBuffer struct {
	mu        sync.Mutex
	questions []assessment.Question
	code      []string
}

func newAnswerBuffer(questions []assessment.Question) *AnswerBuffer {
	b := &AnswerBuffer{
		questions: append([]assessment.Question(nil), questions...),
		code:      make([]string, len(questions)),
	}
	for i, q := range questions {
		b.code[i] = q.StarterCode
	}
	return b
}

func (b *AnswerBuffer) Len() int { return len(b.questions) }

func (b *AnswerBuffer) Question(i int) (assessment.Question, error) {
	if err := b.checkIndex(i); err != nil {
		return assessment.Question{}, err
	}
	return b.questions[i], nil
}

func (b *AnswerBuffer) Code(i int) (string, error) {
	if err := b.checkIndex(i); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.code[i], nil
}

// Set replaces the code of question i.
func (b *AnswerBuffer) Set(i int, code string) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.code[i] = code
	return nil
}

// Reset restores the starter code of question i.
func (b *AnswerBuffer) Reset(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	return b.Set(i, b.questions[i].StarterCode)
}

// Assemble returns one answer per question in question order.
func (b *AnswerBuffer) Assemble() []assessment.Answer {
	b.mu.Lock()
	defer b.mu.Unlock()

	answers := make([]assessment.Answer, len(b.questions))
	for i, q := range b.questions {
		answers[i] = assessment.Answer{Title: q.Title, Language: q.Language, Code: b.code[i]}
	}
	return answers
}

func (b *AnswerBuffer) checkIndex(i int) error {
	if i < 0 || i >= len(b.questions) {
		return fmt.Errorf("%w: %d of %d", ErrQuestionIndex, i, len(b.questions))
	}
	return nil
}
