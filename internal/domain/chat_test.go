package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryWireShape(t *testing.T) {
	history := History{NewTurn("问一", "答一"), NewTurn("问二", "答二")}

	data, err := json.Marshal(history)
	require.NoError(t, err)
	assert.JSONEq(t, `[["问一","答一"],["问二","答二"]]`, string(data))

	var decoded History
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, history, decoded)
	assert.Equal(t, "问二", decoded[1].Question())
	assert.Equal(t, "答二", decoded[1].Answer())
}

func TestRenderSources(t *testing.T) {
	rendered := RenderSources([]Source{
		{Filename: "a.docx", Content: "第一段", Score: 0.91},
		{Filename: "b.docx", Content: "第二段", Score: 0.8},
	})

	require.Len(t, rendered, 2)
	assert.Contains(t, rendered[0], "出处 [1] a.docx")
	assert.Contains(t, rendered[0], "第一段")
	assert.Contains(t, rendered[0], "相关度：0.91")
	assert.Contains(t, rendered[1], "出处 [2] b.docx")
}

func TestRenderSourcesEmpty(t *testing.T) {
	assert.Empty(t, RenderSources(nil))
}

func TestStreamControlWireKeys(t *testing.T) {
	end := StreamControl{
		Question:        "问",
		Turn:            1,
		Flag:            StreamFlagEnd,
		SourceDocuments: []string{"出处 [1] a.txt"},
	}

	data, err := json.Marshal(end)
	require.NoError(t, err)
	// stream end frames use the doubled key, unlike the single-shot response
	assert.Contains(t, string(data), `"sources_documents"`)
	assert.NotContains(t, string(data), `"source_documents"`)

	start := StreamControl{Question: "问", Turn: 1, Flag: StreamFlagStart}
	data, err = json.Marshal(start)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "documents")
}
