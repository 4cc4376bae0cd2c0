package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestFile_MissingFileIsEmpty(t *testing.T) {
	g := NewGuestFile(filepath.Join(t.TempDir(), "guest.json"))

	snap, err := g.Load()
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.NoError(t, g.Clear())
}

func TestGuestFile_SaveLoadClear(t *testing.T) {
	g := NewGuestFile(filepath.Join(t.TempDir(), "nested", "guest.json"))

	snap := testutil.NewTestSnapshot(
		testutil.NewTestCourseProgress("prompt-craft-102",
			testutil.WithStatus(domain.CourseInProgress),
			testutil.WithModules("prompt-craft-102-m1"),
			testutil.WithCFUAnswer("prompt-craft-102-m3", "b", true),
		),
	)
	snap.Modules["prompt-craft-102-m1"] = testutil.NewTestMasteredModule("prompt-craft-102-m1")
	snap.BypassAttempts[2] = true
	require.NoError(t, g.Save(snap))

	loaded, err := g.Load()
	require.NoError(t, err)
	cp := loaded.Courses["prompt-craft-102"]
	require.NotNil(t, cp)
	assert.Equal(t, domain.CourseInProgress, cp.Status)
	assert.Equal(t, []string{"prompt-craft-102-m1"}, cp.CompletedModules)
	assert.True(t, cp.CFUAnswers["prompt-craft-102-m3"].Correct)
	assert.True(t, loaded.Modules["prompt-craft-102-m1"].Mastered)
	assert.True(t, loaded.BypassAttempts[2])

	require.NoError(t, g.Clear())
	_, err = os.Stat(g.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestParseGuestSnapshot_Minimal(t *testing.T) {
	snap, err := ParseGuestSnapshot([]byte(`{"courses": {"what-is-ai-101": {"completed_modules": ["what-is-ai-101-m1"]}}}`))
	require.NoError(t, err)

	cp := snap.Courses["what-is-ai-101"]
	require.NotNil(t, cp)
	assert.Equal(t, domain.CourseNotStarted, cp.Status, "missing status defaults to not_started")
	assert.NotNil(t, cp.CFUAnswers)
}

func TestParseGuestSnapshot_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad json":   `{"courses": [`,
		"bad status": `{"courses": {"c1": {"status": "finished"}}}`,
		"bad tier":   `{"courses": {}, "bypass_attempts": {"zero": true}}`,
		"tier zero":  `{"courses": {}, "bypass_attempts": {"0": true}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGuestSnapshot([]byte(doc))
			assert.Error(t, err)
		})
	}
}
