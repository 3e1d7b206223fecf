package objectid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAndNewEx(t *testing.T) {
	hex64 := "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	assert.True(t, Valid(hex64))
	id, err := NewEx(hex64)
	require.NoError(t, err)
	assert.Equal(t, hex64, id.String())

	_, err = NewEx("not-hex")
	assert.Error(t, err)

	_, err = NewEx("ab")
	assert.Error(t, err)
}

func TestZeroIsDistinctFromSentinels(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, EmptyBlob.IsZero())
	assert.False(t, EmptyTree.IsZero())
	assert.NotEqual(t, EmptyBlob, EmptyTree)
}

func TestSort(t *testing.T) {
	a := New("0000000000000000000000000000000000000000000000000000000000000002")
	b := New("0000000000000000000000000000000000000000000000000000000000000001")
	ids := []ID{a, b}
	Sort(ids)
	assert.Equal(t, b, ids[0])
	assert.Equal(t, a, ids[1])
}

func TestOfIsDeterministic(t *testing.T) {
	id1 := Of([]byte("hello"))
	id2 := Of([]byte("hello"))
	id3 := Of([]byte("world"))
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

func TestMarshalRoundTrip(t *testing.T) {
	id := Of([]byte("round trip"))
	b, err := id.MarshalJSON()
	require.NoError(t, err)
	var out ID
	require.NoError(t, out.UnmarshalJSON(b))
	assert.Equal(t, id, out)
}
