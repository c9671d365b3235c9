package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pop-os/proc-modules/pkg/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []modules.Record {
	address := uint64(0xffffffffc0512000)
	return []modules.Record{
		{
			Name:         "ext4",
			SizeBytes:    737280,
			Instances:    1,
			Dependencies: []string{"mbcache", "jbd2"},
			State:        modules.StateLive,
			Address:      &address,
		},
		{
			Name:      "loop",
			SizeBytes: 40960,
			State:     modules.StateLive,
		},
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, sampleRecords()))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "ext4")
	assert.Contains(t, out, "mbcache,jbd2")
	assert.Contains(t, out, "0xffffffffc0512000")
	// Absent address renders as a dash, not a zero
	assert.Contains(t, out, "loop")
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 3)
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, sampleRecords()))

	var decoded []modules.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "ext4", decoded[0].Name)
	assert.Equal(t, modules.StateLive, decoded[0].State)
	require.NotNil(t, decoded[0].Address)
	assert.Equal(t, uint64(0xffffffffc0512000), *decoded[0].Address)
	assert.Nil(t, decoded[1].Address)
}
