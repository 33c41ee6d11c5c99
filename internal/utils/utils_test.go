package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUriRoundTrip(t *testing.T) {
	path := "/home/user/src/Thing.php"
	uri := PathToURI(path)
	require.Equal(t, "file:///home/user/src/Thing.php", uri)
	require.Equal(t, path, UriToPath(uri))
}

func TestUriToPathPassesThroughNonFile(t *testing.T) {
	require.Equal(t, "stub-class://Iterator", UriToPath("stub-class://Iterator"))
}

func TestStubURIs(t *testing.T) {
	require.True(t, IsStubURI(StubClassURI("Iterator")))
	require.True(t, IsStubURI(StubFunctionURI("array")))
	require.False(t, IsStubURI("file:///a.php"))
}

func TestAppendUnique(t *testing.T) {
	s := []string{"a"}
	s = AppendUnique(s, "b")
	s = AppendUnique(s, "a")
	require.Equal(t, []string{"a", "b"}, s)
}
