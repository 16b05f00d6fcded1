package projection

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const pageSize = 3

func msg(id string, ts int64, readers ...string) domain.Message {
	return domain.Message{
		ID:             id,
		ConversationID: "alice-bob",
		SenderID:       "alice",
		RecipientID:    "bob",
		Text:           "text " + id,
		CreatedAt:      ts,
		ReadBy:         readers,
	}
}

func ids(view []domain.Message) []string {
	return lo.Map(view, func(m domain.Message, _ int) string { return m.ID })
}

func TestTimeline_ApplyPage_OrdersAndDeduplicates(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)

	// Given an initial page and an overlapping older page
	_, err := timeline.ApplyPage([]domain.Message{msg("c", 30), msg("b", 20), msg("a", 20)}, true)
	req.NoError(err)
	res, err := timeline.ApplyPage([]domain.Message{msg("a", 20), msg("z", 10)}, false)
	req.NoError(err)

	// Then the view is newest first, ties by id descending, without duplicates
	req.Equal([]string{"c", "b", "a", "z"}, ids(timeline.View()))
	req.True(res.Exhausted)
	req.Equal(2, res.Count)

	before, more := timeline.Cursor()
	req.Equal(lo.ToPtr(int64(10)), before)
	req.False(more)
}

func TestTimeline_ApplyPage_RejectsUncommittedEntriesWhole(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)
	_, err := timeline.ApplyPage([]domain.Message{msg("a", 1)}, true)
	req.NoError(err)

	// When a page holds an entry without id
	_, err = timeline.ApplyPage([]domain.Message{msg("b", 2), msg("", 3)}, false)

	// Then nothing of it is merged
	req.ErrorIs(err, errors.ErrUncommittedMessage)
	req.ErrorIs(err, errors.ErrValidation)
	req.Equal([]string{"a"}, ids(timeline.View()))

	err = timeline.ApplyLiveUpdate([]domain.Message{msg("", 4)})
	req.ErrorIs(err, errors.ErrUncommittedMessage)
	req.Equal([]string{"a"}, ids(timeline.View()))
}

func TestTimeline_InitialPageKeepsLiveWindow(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)

	// Given a live snapshot that arrived before the initial page
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{msg("n", 50)}))

	// When the initial page lands
	_, err := timeline.ApplyPage([]domain.Message{msg("n", 50), msg("o", 40)}, true)
	req.NoError(err)

	// Then live data is kept; o is dropped because the short snapshot covers everything
	req.Equal([]string{"n"}, ids(timeline.View()))
}

func TestTimeline_ApplyLiveUpdate_IsIdempotent(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)
	_, err := timeline.ApplyPage([]domain.Message{msg("c", 30), msg("b", 20), msg("a", 10)}, true)
	req.NoError(err)
	_, err = timeline.ApplyPage([]domain.Message{msg("y", 5)}, false)
	req.NoError(err)

	snapshot := []domain.Message{msg("d", 40), msg("c", 30, "bob"), msg("b", 20)}

	// When the same snapshot is applied twice
	req.NoError(timeline.ApplyLiveUpdate(snapshot))
	first := timeline.View()
	req.NoError(timeline.ApplyLiveUpdate(snapshot))

	// Then the view is identical
	req.Equal(first, timeline.View())
	req.Equal([]string{"d", "c", "b", "a", "y"}, ids(first))
}

func TestTimeline_PageAndSnapshotOrderIndependent(t *testing.T) {
	page := []domain.Message{msg("c", 30), msg("b", 20, "alice"), msg("a", 10)}
	snapshot := []domain.Message{msg("e", 50), msg("d", 40), msg("b", 20, "bob")}

	pageFirst := NewTimeline(pageSize)
	_, err := pageFirst.ApplyPage(page, true)
	require.NoError(t, err)
	require.NoError(t, pageFirst.ApplyLiveUpdate(snapshot))

	liveFirst := NewTimeline(pageSize)
	require.NoError(t, liveFirst.ApplyLiveUpdate(snapshot))
	_, err = liveFirst.ApplyPage(page, true)
	require.NoError(t, err)

	// c was deleted: it sits inside the live range but the snapshot omits it
	require.Equal(t, []string{"e", "d", "b", "a"}, ids(pageFirst.View()))
	require.Equal(t, pageFirst.View(), liveFirst.View())
	require.ElementsMatch(t, []string{"alice", "bob"}, pageFirst.View()[2].ReadBy)
}

func TestTimeline_MessagesSlidingOutOfWindowAreKept(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{msg("c", 30), msg("b", 20), msg("a", 10)}))

	// When a new message pushes a out of the live window
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{msg("d", 40), msg("c", 30), msg("b", 20)}))

	// Then a moves to history instead of disappearing
	req.Equal([]string{"d", "c", "b", "a"}, ids(timeline.View()))
}

func TestTimeline_ShortSnapshotDeletes(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{msg("b", 20), msg("a", 10)}))

	// When a message is deleted remotely
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{msg("b", 20)}))

	req.Equal([]string{"b"}, ids(timeline.View()))

	req.NoError(timeline.ApplyLiveUpdate(nil))
	req.Empty(timeline.View())
}

func TestTimeline_ReadersNeverShrink(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{msg("a", 10, "alice", "bob")}))

	// When a stale snapshot without bob is redelivered
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{msg("a", 10, "alice")}))

	req.Equal([]string{"alice", "bob"}, timeline.View()[0].ReadBy)
}

func TestTimeline_EditsComeFromLiveWindow(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{msg("a", 10)}))

	edited := msg("a", 10).ApplyEdit(domain.MessageEdit{Text: "fixed", EditedAt: 11})
	req.NoError(timeline.ApplyLiveUpdate([]domain.Message{edited}))

	// A stale page must not revert the edit
	_, err := timeline.ApplyPage([]domain.Message{msg("a", 10)}, true)
	req.NoError(err)

	view := timeline.View()
	req.Len(view, 1)
	req.Equal("fixed", view[0].Text)
	req.True(view[0].Edited)
}

func TestTimeline_MarkReadAndReset(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)
	_, err := timeline.ApplyPage([]domain.Message{msg("a", 10, "alice")}, true)
	req.NoError(err)

	timeline.MarkRead([]string{"a", "unknown"}, "bob")

	req.Equal([]string{"alice", "bob"}, timeline.View()[0].ReadBy)

	timeline.Reset()
	req.Zero(timeline.Len())
	before, more := timeline.Cursor()
	req.Nil(before)
	req.True(more)
}

func TestTimeline_CallersCannotAliasState(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)
	_, err := timeline.ApplyPage([]domain.Message{msg("a", 10, "alice")}, true)
	req.NoError(err)

	view := timeline.View()
	view[0].ReadBy[0] = "mallory"

	req.Equal([]string{"alice"}, timeline.View()[0].ReadBy)
}

func TestTimeline_FullPageIsNotExhausted(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(pageSize)

	page := make([]domain.Message, 0, pageSize)
	for i := pageSize; i > 0; i-- {
		page = append(page, msg(fmt.Sprintf("m%d", i), int64(i)))
	}
	res, err := timeline.ApplyPage(page, true)

	req.NoError(err)
	req.False(res.Exhausted)
	before, more := timeline.Cursor()
	req.True(more)
	req.Equal(lo.ToPtr(int64(1)), before)
}

func TestTimeline_AnyArrivalOrderConverges(t *testing.T) {
	const total = 11
	conversation := make([]domain.Message, 0, total)
	for i := total - 1; i >= 0; i-- {
		// Pairs share a timestamp so the id tie-break is exercised too
		conversation = append(conversation, msg(fmt.Sprintf("m%02d", i), int64(100+i/2)))
	}
	want := ids(conversation)
	pages := lo.Chunk(conversation, pageSize)
	snapshot := conversation[:pageSize]

	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 200; trial++ {
		timeline := NewTimeline(pageSize)
		applyPage := func(page []domain.Message, initial bool) func() error {
			return func() error {
				_, err := timeline.ApplyPage(page, initial)
				return err
			}
		}
		applyLive := func() error { return timeline.ApplyLiveUpdate(snapshot) }

		// Given older pages in any order, one of them twice, after the initial page
		older := lo.Map(pages[1:], func(page []domain.Message, _ int) func() error { return applyPage(page, false) })
		older = append(older, older[rng.IntN(len(older))])
		rng.Shuffle(len(older), func(i, j int) { older[i], older[j] = older[j], older[i] })
		steps := append([]func() error{applyPage(pages[0], true)}, older...)

		// And the live snapshot arriving twice at any point
		for range 2 {
			at := rng.IntN(len(steps) + 1)
			steps = append(steps[:at], append([]func() error{applyLive}, steps[at:]...)...)
		}
		for _, step := range steps {
			require.NoError(t, step())
		}

		// Then the view is the whole conversation, each message once
		require.Equal(t, want, ids(timeline.View()), "trial %d", trial)
	}
}
