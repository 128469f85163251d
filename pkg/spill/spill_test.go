package spill

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name    string
	Message string
	Count   int
}

func TestSpill(t *testing.T) {
	t.Run("append and range keep order", func(t *testing.T) {
		s, err := New[record](t.TempDir())
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Append(record{Name: "a", Message: "failed", Count: 2}))
		require.NoError(t, s.Append(record{Name: "b"}))
		assert.Equal(t, uint64(2), s.Len())

		var got []record
		require.NoError(t, s.Range(func(_ uint64, item record) error {
			got = append(got, item)
			return nil
		}))

		// The second record's zero fields must not inherit the first's values.
		assert.Equal(t, []record{{Name: "a", Message: "failed", Count: 2}, {Name: "b"}}, got)
	})

	t.Run("range stops on callback error", func(t *testing.T) {
		s, err := New[int](t.TempDir())
		require.NoError(t, err)
		defer s.Close()

		for i := 1; i <= 3; i++ {
			require.NoError(t, s.Append(i))
		}

		stop := errors.New("stop")
		seen := 0

		err = s.Range(func(index uint64, _ int) error {
			seen++
			if index == 1 {
				return stop
			}

			return nil
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 2, seen)
	})

	t.Run("close removes the file", func(t *testing.T) {
		s, err := New[int](t.TempDir())
		require.NoError(t, err)

		path := s.Path()
		require.FileExists(t, path)

		require.NoError(t, s.Close())
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		assert.Error(t, s.Append(1))
		assert.NoError(t, s.Close())
	})
}
