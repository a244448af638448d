//go:build !windows

package job_test

import (
	"testing"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/job"
	"github.com/stretchr/testify/assert"
)

func TestCreateUnsupported(t *testing.T) {
	j, err := job.Create("workers", job.WithKillOnClose())
	assert.Nil(t, j)
	assert.ErrorIs(t, err, api.ErrNotSupported)
}
