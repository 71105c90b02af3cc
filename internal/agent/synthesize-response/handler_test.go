package synthesizeresponse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

type stubCompleter struct {
	err    error
	calls  int
	prompt string
}

func (s *stubCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	s.prompt = userPrompt
	if s.err != nil {
		return "", s.err
	}
	return "Here is my recommendation:\n" + userPrompt, nil
}

func verified(name, address, url string, score float64) models.Business {
	return models.Business{
		Name: name, Address: address, Score: score,
		ProductFound: true, ProductURL: url,
	}
}

func TestExecute_EmptyVerifiedUsesApologyWithoutModelCall(t *testing.T) {
	llm := &stubCompleter{}
	handler := NewHandler(LoadConfig(), llm, logger.NewTestLogger(t))

	out, err := handler.Execute(context.Background(), &Input{Query: "rochie rosie"})
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, out.Message)
	assert.Zero(t, llm.calls)
}

func TestExecute_SortsAscendingAndTruncatesToThree(t *testing.T) {
	llm := &stubCompleter{}
	handler := NewHandler(LoadConfig(), llm, logger.NewTestLogger(t))

	input := &Input{
		Query: "rochie rosie",
		Verified: []models.Business{
			verified("Mall Store", "Unirii 1", "https://mall.ro/rochie", 9),
			verified("Boutique Aura", "Lipscani 21", "https://boutique-aura.ro/rochie", -5),
			verified("Atelier Mara", "Dorobanti 3", "", 1),
			verified("Fashion House", "Magheru 8", "https://fashionhouse.ro/rochie", 4),
		},
	}

	out, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Contains(t, llm.prompt, "Boutique Aura")
	assert.Contains(t, llm.prompt, "Atelier Mara")
	assert.Contains(t, llm.prompt, "Fashion House")
	assert.NotContains(t, llm.prompt, "Mall Store")

	auraIdx := strings.Index(llm.prompt, "Boutique Aura")
	maraIdx := strings.Index(llm.prompt, "Atelier Mara")
	assert.Less(t, auraIdx, maraIdx)

	assert.NotEmpty(t, out.Message)
}

func TestExecute_MissingProductURLBecomesCheckInStore(t *testing.T) {
	llm := &stubCompleter{}
	handler := NewHandler(LoadConfig(), llm, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		Query:    "rochie",
		Verified: []models.Business{verified("Atelier Mara", "Dorobanti 3", "", 1)},
	})
	require.NoError(t, err)
	assert.Contains(t, llm.prompt, "check in store")
}

func TestExecute_ModelFailureStillReturnsResults(t *testing.T) {
	llm := &stubCompleter{err: errors.New("model down")}
	handler := NewHandler(LoadConfig(), llm, logger.NewTestLogger(t))

	out, err := handler.Execute(context.Background(), &Input{
		Query:    "rochie",
		Verified: []models.Business{verified("Boutique Aura", "Lipscani 21", "https://boutique-aura.ro/r", 0)},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Message, "Boutique Aura")
	assert.Contains(t, out.Message, "https://boutique-aura.ro/r")
}

func TestExecute_InputSliceNotReordered(t *testing.T) {
	llm := &stubCompleter{}
	handler := NewHandler(LoadConfig(), llm, logger.NewTestLogger(t))

	input := &Input{
		Query: "rochie",
		Verified: []models.Business{
			verified("B", "b", "", 5),
			verified("A", "a", "", 1),
		},
	}
	_, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "B", input.Verified[0].Name)
}
