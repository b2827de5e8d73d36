package transform_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"bytepipe/transform"
)

// tagUnit appends its tag after every consumed byte so composition order is visible.
type tagUnit struct {
	tag   byte
	calls *int
}

func (u tagUnit) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	if u.calls != nil {
		*u.calls++
	}
	out := make([]byte, 0, 2*len(in))
	for _, b := range in {
		out = append(out, b, u.tag)
	}
	return transform.Result{Output: out, Consumed: len(in), State: st}, nil
}

// blockUnit echoes whole blocks of size n and counts bytes seen in its state.
// When log is set every call appends the count it was handed.
type blockUnit struct {
	n   int
	log *[]int
}

func (u blockUnit) PreferredChunkSize() int { return u.n }

func (u blockUnit) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	seen, _ := st.(int)
	if u.log != nil {
		*u.log = append(*u.log, seen)
	}
	k := transform.Blocks(len(in), u.n, end)
	return transform.Result{Output: append([]byte(nil), in[:k]...), Consumed: k, State: seen + k}, nil
}

type failUnit struct {
	on    byte
	calls *int
}

func (u failUnit) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	if u.calls != nil {
		*u.calls++
	}
	if i := bytes.IndexByte(in, u.on); i >= 0 {
		return transform.Result{Output: append([]byte(nil), in[:i]...), Consumed: i, State: st},
			transform.Validation("fail", "forbidden byte", nil)
	}
	return transform.Result{Output: append([]byte(nil), in...), Consumed: len(in), State: st}, nil
}

func TestNewCompound_RejectsEmptyAndNil(t *testing.T) {
	_, err := transform.NewCompound()
	require.Error(t, err)

	_, err = transform.NewCompound(tagUnit{tag: 'a'}, nil)
	require.Error(t, err)
}

func TestCompound_AppliesStagesInOrder(t *testing.T) {
	c, err := transform.NewCompound(tagUnit{tag: 'A'}, tagUnit{tag: 'B'})
	require.NoError(t, err)

	res, err := c.Transform([]byte("xy"), nil, true)
	require.NoError(t, err)
	require.Equal(t, string(expectTagged("xy", 'A', 'B')), string(res.Output))
	require.Equal(t, "xBABy"+"BAB", string(res.Output))
	require.Equal(t, 2, res.Consumed)
}

func expectTagged(s string, tags ...byte) []byte {
	out := []byte(s)
	for _, tag := range tags {
		next := make([]byte, 0, 2*len(out))
		for _, b := range out {
			next = append(next, b, tag)
		}
		out = next
	}
	return out
}

func TestCompound_ReportsOnlyFirstStageConsumption(t *testing.T) {
	c, err := transform.NewCompound(blockUnit{n: 4}, tagUnit{tag: '.'})
	require.NoError(t, err)

	res, err := c.Transform([]byte("abcdef"), nil, false)
	require.NoError(t, err)
	require.Equal(t, 4, res.Consumed)
	require.Equal(t, "a.b.c.d.", string(res.Output))
}

func TestCompound_OuterStageWaitsForChunkSize(t *testing.T) {
	c, err := transform.NewCompound(tagUnit{tag: '-'}, blockUnit{n: 8})
	require.NoError(t, err)

	// 3 input bytes become 6 pending bytes in front of the 8-byte stage.
	res, err := c.Transform([]byte("abc"), nil, false)
	require.NoError(t, err)
	require.Equal(t, 3, res.Consumed)
	require.Empty(t, res.Output)
	require.Equal(t, []int{0, 6}, c.Pending(res.State))

	res, err = c.Transform([]byte("d"), res.State, false)
	require.NoError(t, err)
	require.Equal(t, "a-b-c-d-", string(res.Output))
	require.Equal(t, []int{0, 0}, c.Pending(res.State))

	res, err = c.Transform([]byte("e"), res.State, true)
	require.NoError(t, err)
	require.Equal(t, "e-", string(res.Output))
}

func TestCompound_ErrorShortCircuits(t *testing.T) {
	var thirdCalls int
	c, err := transform.NewCompound(
		tagUnit{tag: '1'},
		failUnit{on: 'x'},
		tagUnit{tag: '3', calls: &thirdCalls},
	)
	require.NoError(t, err)

	res, err := c.Transform([]byte("abx"), nil, true)
	require.ErrorIs(t, err, transform.ErrValidation)
	require.Equal(t, 3, res.Consumed)
	require.Equal(t, "a1b1", string(res.Output))
	require.Zero(t, thirdCalls)
}

func TestCompound_FirstStageErrorSkipsRest(t *testing.T) {
	var secondCalls int
	c, err := transform.NewCompound(failUnit{on: '!'}, tagUnit{tag: '2', calls: &secondCalls})
	require.NoError(t, err)

	res, err := c.Transform([]byte("ok!"), nil, false)
	require.Error(t, err)
	require.Equal(t, 2, res.Consumed)
	require.Equal(t, "ok", string(res.Output))
	require.Zero(t, secondCalls)
}

func TestCompound_SameUnitAtTwoPositionsKeepsSeparateState(t *testing.T) {
	var seen []int
	shared := blockUnit{n: 1, log: &seen}
	c, err := transform.NewCompound(shared, shared)
	require.NoError(t, err)

	res, err := c.Transform([]byte("abc"), nil, false)
	require.NoError(t, err)
	res, err = c.Transform([]byte("de"), res.State, false)
	require.NoError(t, err)
	res, err = c.Transform(nil, res.State, true)
	require.NoError(t, err)
	require.Empty(t, res.Output)
	require.Equal(t, []int{0, 0}, c.Pending(res.State))

	// Each position counts only the bytes that reached it.
	require.Equal(t, []int{0, 0, 3, 3, 5, 5}, seen)
}

func TestCompound_OuterStageLeftoverAtEndIsProtocolViolation(t *testing.T) {
	lazy := transform.UnitFunc(func(in []byte, st transform.State, end bool) (transform.Result, error) {
		k := min(len(in), 2)
		return transform.Result{Output: append([]byte(nil), in[:k]...), Consumed: k, State: st}, nil
	})
	c, err := transform.NewCompound(tagUnit{tag: '.'}, lazy)
	require.NoError(t, err)

	res, err := c.Transform([]byte("ab"), nil, true)
	var pv *transform.ProtocolViolationError
	require.True(t, errors.As(err, &pv))
	require.ErrorIs(t, err, transform.ErrProtocolViolation)
	require.Equal(t, 1, pv.Stage)
	require.Equal(t, 2, pv.Consumed)
	require.Equal(t, 4, pv.Available)
	require.Equal(t, 2, res.Consumed)
	require.Equal(t, "a.", string(res.Output))
}

func TestCompound_PreferredChunkSizeIsFirstStage(t *testing.T) {
	c, err := transform.NewCompound(blockUnit{n: 4}, blockUnit{n: 16})
	require.NoError(t, err)
	require.Equal(t, 4, c.PreferredChunkSize())

	c, err = transform.NewCompound(tagUnit{tag: 'a'}, blockUnit{n: 16})
	require.NoError(t, err)
	require.Equal(t, transform.DefaultChunkSize, c.PreferredChunkSize())

	nested, err := transform.NewCompound(c, blockUnit{n: 3})
	require.NoError(t, err)
	require.Equal(t, transform.DefaultChunkSize, nested.PreferredChunkSize())
}

func TestCompound_ConsumedOutOfRangeIsProtocolViolation(t *testing.T) {
	greedy := transform.UnitFunc(func(in []byte, st transform.State, end bool) (transform.Result, error) {
		return transform.Result{Consumed: len(in) + 1}, nil
	})
	c, err := transform.NewCompound(tagUnit{tag: '.'}, greedy)
	require.NoError(t, err)

	_, err = c.Transform([]byte("ab"), nil, true)
	var pv *transform.ProtocolViolationError
	require.True(t, errors.As(err, &pv))
	require.Equal(t, 1, pv.Stage)
	require.Equal(t, 5, pv.Consumed)
	require.Equal(t, 4, pv.Available)
}

func TestCompound_MatchesNestedApplication(t *testing.T) {
	a, b, cu := tagUnit{tag: 'a'}, tagUnit{tag: 'b'}, tagUnit{tag: 'c'}
	c, err := transform.NewCompound(a, b, cu)
	require.NoError(t, err)

	res, err := c.Transform([]byte("hi"), nil, true)
	require.NoError(t, err)

	step := func(u transform.Unit, in []byte) []byte {
		r, err := u.Transform(in, nil, true)
		require.NoError(t, err)
		return r.Output
	}
	require.Equal(t, step(cu, step(b, step(a, []byte("hi")))), res.Output)
}
