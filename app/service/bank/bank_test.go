package bank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadBio(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "bios"), "Pierre.yaml", `
biography:
  - Runs the general store.
  - Fiercely competitive with the supermarket.
preoccupations:
  - stock levels
extra_portraits:
  k: smug
loved_gifts:
  - Fried Calamari
`)

	svc := &Service{dataDir: dataDir}
	bio, err := svc.LoadBio("Pierre")
	require.NoError(t, err)

	assert.False(t, bio.Missing)
	assert.Equal(t, "Pierre", bio.Name)
	assert.Len(t, bio.Biography, 2)
	assert.Equal(t, []string{"Fried Calamari"}, bio.LovedGifts)
	assert.ElementsMatch(t, []string{"h", "s", "l", "a", "k"}, bio.ValidPortraits())
}

func TestLoadBioMissingFile(t *testing.T) {
	t.Parallel()

	svc := &Service{dataDir: t.TempDir()}
	bio, err := svc.LoadBio("Nobody")
	require.NoError(t, err)

	assert.True(t, bio.Missing)
	assert.ElementsMatch(t, []string{"h", "s", "l", "a"}, bio.ValidPortraits())
}

func TestLoadSamples(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "dialogue"), "Pierre.yaml", `
Mon6: Welcome! Stock just came in.
fall_15:
  - The harvest season keeps me busy.
  - Pumpkin seeds are selling well.
`)
	writeFile(t, filepath.Join(dataDir, "dialogue"), "Pierre.marriage.yaml", `
Mon: Morning, dear.
`)

	svc := &Service{dataDir: dataDir}
	samples, err := svc.LoadSamples("Pierre")
	require.NoError(t, err)
	require.Len(t, samples, 4)

	byText := make(map[string]*dialogue.Context)
	for _, sample := range samples {
		byText[sample.Text] = sample.Context
	}

	mon := byText["Welcome! Stock just came in."]
	require.NotNil(t, mon)
	require.NotNil(t, mon.Day)
	assert.Equal(t, dialogue.Mon, *mon.Day)
	require.NotNil(t, mon.Hearts)
	assert.Equal(t, 6, *mon.Hearts)

	harvest := byText["The harvest season keeps me busy."]
	require.NotNil(t, harvest)
	require.NotNil(t, harvest.Season)
	assert.Equal(t, dialogue.Fall, *harvest.Season)

	married := byText["Morning, dear."]
	require.NotNil(t, married)
	assert.True(t, married.Married)
}

func TestListCharacters(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "bios"), "Abigail.yaml", "biography: [Loves amethyst.]\n")
	writeFile(t, filepath.Join(dataDir, "dialogue"), "Pierre.yaml", "Mon: Hi.\n")
	writeFile(t, filepath.Join(dataDir, "dialogue"), "Pierre.marriage.yaml", "Mon: Dear.\n")
	writeFile(t, filepath.Join(dataDir, "dialogue"), "notes.txt", "ignored\n")

	svc := &Service{dataDir: dataDir}
	names, err := svc.ListCharacters()
	require.NoError(t, err)

	assert.Equal(t, []string{"Abigail", "Pierre"}, names)
}
