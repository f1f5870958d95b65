package gitlab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/cibulb/internal/status"
)

const pipelineBody = `{
  "object_kind": "pipeline",
  "object_attributes": {"id": 123, "ref": "master", "status": "success"},
  "project": {"path_with_namespace": "test"}
}`

func TestParsePipelineEvent(t *testing.T) {
	evt, err := ParsePipelineEvent([]byte(pipelineBody))
	require.NoError(t, err)

	assert.Equal(t, int64(123), evt.PipelineID)
	assert.Equal(t, "master", evt.Ref)
	assert.Equal(t, status.Success, evt.Status)
	assert.Equal(t, "test", evt.Repository)
	assert.NoError(t, evt.Validate())
}

func TestParsePipelineEventMalformed(t *testing.T) {
	_, err := ParsePipelineEvent([]byte(`{"object_attributes":`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&PipelineEvent{Status: status.Success}).Validate())
	assert.Error(t, (&PipelineEvent{Repository: "group/app"}).Validate())
	assert.NoError(t, (&PipelineEvent{Repository: "group/app", Status: "manual"}).Validate())
}

func TestOnBranch(t *testing.T) {
	tests := []struct {
		ref, branch string
		want        bool
	}{
		{"master", "master", true},
		{"refs/heads/master", "master", true},
		{"master", "refs/heads/master", true},
		{"feature/x", "master", false},
		{"", "master", false},
	}
	for _, tt := range tests {
		evt := &PipelineEvent{Ref: tt.ref}
		assert.Equal(t, tt.want, evt.OnBranch(tt.branch), "ref %q branch %q", tt.ref, tt.branch)
	}
}

func TestVerifyToken(t *testing.T) {
	assert.True(t, VerifyToken("my-secret", "my-secret"))
	assert.False(t, VerifyToken("my-secret", "foo"))
	assert.False(t, VerifyToken("my-secret", ""))
	assert.False(t, VerifyToken("", ""))
}
