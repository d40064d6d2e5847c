package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectJavaSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main/java/com/example/ModBlocks.java", "public class ModBlocks {}")
	writeFile(t, root, "src/main/java/com/example/BreakHandler.java", "public class BreakHandler {}")
	writeFile(t, root, "src/main/resources/fabric.mod.json", "{}")
	writeFile(t, root, "README.md", "readme")

	files, err := NewCrawler().Collect(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "src/main/java/com/example/ModBlocks.java")
	assert.Contains(t, paths, "src/main/java/com/example/BreakHandler.java")
}

func TestCollectSkipsBuildDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/Mod.java", "public class Mod {}")
	writeFile(t, root, "build/generated/Mod.java", "public class Mod {}")
	writeFile(t, root, "out/Mod.java", "public class Mod {}")
	writeFile(t, root, ".gradle/cache/Mod.java", "public class Mod {}")

	files, err := NewCrawler().Collect(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/Mod.java", files[0].Path)
}

func TestCollectLoadsContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Mod.java", "public class Mod {}")

	files, err := NewCrawler().Collect(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, []byte("public class Mod {}"), files[0].Source)
}

func TestCollectEmptyTree(t *testing.T) {
	files, err := NewCrawler().Collect(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}
