package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/filehub/api/src/naming"
)

func newLocalStore(t *testing.T, codec naming.Codec) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), codec, logrus.New())
	require.NoError(t, err)
	return s
}

func putString(t *testing.T, s *LocalStore, folder, name, content string) {
	t.Helper()
	_, err := s.Put(context.Background(), folder, name, strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)
}

func TestLocalPutFetchRoundTrip(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	putString(t, s, "projects/a", "notes.txt", "hello world")

	obj, err := s.Fetch(context.Background(), "projects/a", "notes.txt")
	require.NoError(t, err)
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
	require.Equal(t, int64(len("hello world")), obj.Size)
	require.Empty(t, obj.RedirectURL)
}

func TestLocalRoundTripWithBase64Codec(t *testing.T) {
	s := newLocalStore(t, naming.Base64{})
	putString(t, s, "docs", "báo cáo quý.txt", "data")

	// The on-disk identifier is encoded, the listing shows the display name.
	listing, err := s.List(context.Background(), "docs")
	require.NoError(t, err)
	require.Equal(t, []string{"báo cáo quý.txt"}, listing.Files)

	obj, err := s.Fetch(context.Background(), "docs", "báo cáo quý.txt")
	require.NoError(t, err)
	obj.Body.Close()
}

func TestLocalListSplitsFoldersAndFiles(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	putString(t, s, "projects/a", "notes.txt", "x")
	require.NoError(t, s.CreateFolder(context.Background(), "projects", "empty"))

	listing, err := s.List(context.Background(), "projects")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "empty"}, listing.Folders)
	require.Empty(t, listing.Files)

	listing, err = s.List(context.Background(), "projects/a")
	require.NoError(t, err)
	require.Empty(t, listing.Folders)
	require.Equal(t, []string{"notes.txt"}, listing.Files)
}

func TestLocalListMissingFolderNotFound(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	_, err := s.List(context.Background(), "no/such/folder")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalFetchMissingNotFound(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	_, err := s.Fetch(context.Background(), "", "ghost.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalRename(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	putString(t, s, "projects/a", "notes.txt", "x")

	require.NoError(t, s.Rename(context.Background(), "projects/a", "notes.txt", "ideas.txt"))

	listing, err := s.List(context.Background(), "projects/a")
	require.NoError(t, err)
	require.Equal(t, []string{"ideas.txt"}, listing.Files)

	require.ErrorIs(t, s.Rename(context.Background(), "projects/a", "notes.txt", "x.txt"), ErrNotFound)
}

func TestLocalDelete(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	putString(t, s, "projects/a", "notes.txt", "x")

	require.NoError(t, s.Delete(context.Background(), "projects/a", "notes.txt"))

	listing, err := s.List(context.Background(), "projects/a")
	require.NoError(t, err)
	require.Empty(t, listing.Files)

	require.ErrorIs(t, s.Delete(context.Background(), "projects/a", "notes.txt"), ErrNotFound)
}

func TestLocalCreateFolderConflict(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})

	require.NoError(t, s.CreateFolder(context.Background(), "projects", "a"))
	require.ErrorIs(t, s.CreateFolder(context.Background(), "projects", "a"), ErrFolderExists)
}

func TestLocalDeleteFolderRecursive(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	putString(t, s, "projects/a/deep", "notes.txt", "x")

	require.NoError(t, s.DeleteFolder(context.Background(), "projects/a"))

	_, err := s.List(context.Background(), "projects/a")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.DeleteFolder(context.Background(), "projects/a"), ErrNotFound)
}

func TestLocalDeleteFolderRefusesRoot(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	require.Error(t, s.DeleteFolder(context.Background(), ""))
	require.Error(t, s.DeleteFolder(context.Background(), "/"))
}

func TestLocalSearchRecursive(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})
	putString(t, s, "projects/a", "notes.txt", "x")
	putString(t, s, "", "footnote.md", "y")
	putString(t, s, "projects/a", "unrelated.bin", "z")

	hits, err := s.Search(context.Background(), "note")
	require.NoError(t, err)
	require.ElementsMatch(t, []SearchHit{
		{File: "notes.txt", Folder: "projects/a"},
		{File: "footnote.md", Folder: ""},
	}, hits)
}

func TestLocalSearchMatchesDisplayNameNotIdentifier(t *testing.T) {
	s := newLocalStore(t, naming.Base64{})
	putString(t, s, "docs", "ghi chú.txt", "x")

	hits, err := s.Search(context.Background(), "chú")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "ghi chú.txt", hits[0].File)
	require.Equal(t, "docs", hits[0].Folder)
}

func TestLocalPathTraversalRejected(t *testing.T) {
	s := newLocalStore(t, naming.Identity{})

	_, err := s.List(context.Background(), "../../etc")
	require.ErrorIs(t, err, ErrPathTraversal)

	_, err = s.Fetch(context.Background(), "", "../passwd")
	require.ErrorIs(t, err, ErrPathTraversal)

	_, err = s.Put(context.Background(), "..", "x.txt", strings.NewReader("x"), 1)
	require.ErrorIs(t, err, ErrPathTraversal)
}
