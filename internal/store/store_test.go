package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeload/resumeload/internal/errs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "store.db"), filepath.Join(dir, "store.lock"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMetadataMissingReturnsNilNil(t *testing.T) {
	s := openTestStore(t)
	m, err := s.GetMetadata("https://example.com/f.bin")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestPutAndGetMetadataRoundTrips(t *testing.T) {
	s := openTestStore(t)
	in := Metadata{
		URL:             "https://example.com/f.bin",
		Filename:        "f.bin",
		TotalBytes:      1000,
		DownloadedBytes: 250,
		SupportsResume:  true,
		ChunkSize:       500,
	}
	require.NoError(t, s.PutMetadata(in))

	out, err := s.GetMetadata(in.URL)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestPutMetadataUpserts(t *testing.T) {
	s := openTestStore(t)
	url := "https://example.com/f.bin"
	require.NoError(t, s.PutMetadata(Metadata{URL: url, Filename: "f.bin", DownloadedBytes: 100}))
	require.NoError(t, s.PutMetadata(Metadata{URL: url, Filename: "f.bin", DownloadedBytes: 900}))

	out, err := s.GetMetadata(url)
	require.NoError(t, err)
	assert.Equal(t, int64(900), out.DownloadedBytes)
}

func TestDeleteMetadataRemovesRecord(t *testing.T) {
	s := openTestStore(t)
	url := "https://example.com/f.bin"
	require.NoError(t, s.PutMetadata(Metadata{URL: url, Filename: "f.bin"}))
	require.NoError(t, s.DeleteMetadata(url))

	out, err := s.GetMetadata(url)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestPutChunkIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	url := "https://example.com/f.bin"

	require.NoError(t, s.PutChunk(url, 0, []byte("first")))
	require.NoError(t, s.PutChunk(url, 0, []byte("second-should-be-ignored")))

	chunks, err := s.ListChunks(url)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []byte("first"), chunks[0].Blob)
}

func TestListChunksOrderedByIndex(t *testing.T) {
	s := openTestStore(t)
	url := "https://example.com/f.bin"

	require.NoError(t, s.PutChunk(url, 2, []byte("c")))
	require.NoError(t, s.PutChunk(url, 0, []byte("a")))
	require.NoError(t, s.PutChunk(url, 1, []byte("b")))

	chunks, err := s.ListChunks(url)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{chunks[0].Index, chunks[1].Index, chunks[2].Index})
}

func TestDeleteChunksRemovesAllForURL(t *testing.T) {
	s := openTestStore(t)
	url := "https://example.com/f.bin"
	other := "https://example.com/other.bin"

	require.NoError(t, s.PutChunk(url, 0, []byte("a")))
	require.NoError(t, s.PutChunk(other, 0, []byte("keep-me")))
	require.NoError(t, s.DeleteChunks(url))

	chunks, err := s.ListChunks(url)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	otherChunks, err := s.ListChunks(other)
	require.NoError(t, err)
	assert.Len(t, otherChunks, 1)
}

func TestPurgeRemovesMetadataAndChunks(t *testing.T) {
	s := openTestStore(t)
	url := "https://example.com/f.bin"
	require.NoError(t, s.PutMetadata(Metadata{URL: url, Filename: "f.bin"}))
	require.NoError(t, s.PutChunk(url, 0, []byte("a")))

	require.NoError(t, s.Purge(url))

	m, err := s.GetMetadata(url)
	require.NoError(t, err)
	assert.Nil(t, m)

	chunks, err := s.ListChunks(url)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestListMetadataReturnsAllRecords(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutMetadata(Metadata{URL: "a", Filename: "a.bin"}))
	require.NoError(t, s.PutMetadata(Metadata{URL: "b", Filename: "b.bin"}))

	records, err := s.ListMetadata()
	require.NoError(t, err)
	require.Len(t, records, 2)

	urls := []string{records[0].URL, records[1].URL}
	assert.ElementsMatch(t, []string{"a", "b"}, urls)
}

func TestResetWipesEverything(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutMetadata(Metadata{URL: "a", Filename: "a"}))
	require.NoError(t, s.PutChunk("a", 0, []byte("x")))
	require.NoError(t, s.PutMetadata(Metadata{URL: "b", Filename: "b"}))

	require.NoError(t, s.Reset())

	m, err := s.GetMetadata("a")
	require.NoError(t, err)
	assert.Nil(t, m)

	chunks, err := s.ListChunks("a")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestOpenFailsWhenAlreadyLocked(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "store.db")
	lockPath := filepath.Join(dir, "store.lock")

	first, err := Open(dbPath, lockPath)
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(dbPath, lockPath)
	require.Error(t, err)
	var storeErr *errs.Error
	require.ErrorAs(t, err, &storeErr)
}
