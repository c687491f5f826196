package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction_FencedBlock(t *testing.T) {
	act, err := parseAction("I'll click the continue button.\n```json\n{\"action\": \"click\", \"index\": 7}\n```")
	require.NoError(t, err)
	assert.Equal(t, actionClick, act.Action)
	assert.Equal(t, 7, act.Index)
}

func TestParseAction_BareJSON(t *testing.T) {
	act, err := parseAction(`{"action": "type", "index": 2, "text": "Meta Quest Pro"}`)
	require.NoError(t, err)
	assert.Equal(t, actionType, act.Action)
	assert.Equal(t, "Meta Quest Pro", act.Text)
}

func TestParseAction_DoneCarriesOutcome(t *testing.T) {
	act, err := parseAction(`{"action": "done", "success": true, "message": "form submitted"}`)
	require.NoError(t, err)
	assert.Equal(t, actionDone, act.Action)
	assert.True(t, act.Success)
	assert.Equal(t, "form submitted", act.Message)
}

func TestParseAction_MissingActionField(t *testing.T) {
	_, err := parseAction(`{"index": 3}`)
	assert.Error(t, err)
}

func TestParseAction_NoJSON(t *testing.T) {
	_, err := parseAction("Let me think about this page first.")
	assert.Error(t, err)
}

func TestIndexSelector(t *testing.T) {
	assert.Equal(t, `[data-kraig-index="12"]`, indexSelector(12))
}
