package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListedItem(t *testing.T) {
	now := time.Now()
	it, err := NewListedItem("  V1 ", ItemVideo, " Title ", "", 2, "b1", now)
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID)
	assert.Equal(t, "V1", it.ItemID)
	assert.Equal(t, "Title", it.Title)
	assert.Equal(t, "video:V1", it.Key())
	assert.Equal(t, now, it.UpdatedAt)

	_, err = NewListedItem("", ItemType(8), "", "", -1, "", time.Time{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 5)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestItemKey_TypeDistinguishes(t *testing.T) {
	assert.NotEqual(t, ItemKey("X", ItemVideo), ItemKey("X", ItemChannel))
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory("Spam", "", 1, "", false, time.Now())
	require.NoError(t, err)
	assert.Equal(t, DefaultCategoryColor, c.Color)
	assert.True(t, c.IsActive)
	assert.False(t, c.IsSystem)

	_, err = NewCategory("", "red", -1, "", false, time.Now())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	c.ParentID = c.ID
	assert.Error(t, c.Validate())
}

func TestBatch_Lifecycle(t *testing.T) {
	now := time.Now()
	b := NewBatch(" nightly ", Blacklist, SourceFile, 10, now)
	assert.Equal(t, BatchPending, b.Status)
	assert.Equal(t, "nightly", b.Name)
	assert.False(t, b.IsComplete())

	require.Error(t, b.Transition(BatchCompleted, now), "pending cannot complete directly")
	require.NoError(t, b.Transition(BatchProcessing, now))
	require.Error(t, b.Transition(BatchProcessing, now))
	require.NoError(t, b.Transition(BatchCompleted, now))
	assert.True(t, b.IsComplete())

	for _, next := range []BatchStatus{BatchProcessing, BatchFailed, BatchCancelled, BatchCompleted} {
		assert.Error(t, b.Transition(next, now), "terminal state must be immutable (%s)", next)
	}
}

func TestBatch_CancelOrFailFromPending(t *testing.T) {
	for _, next := range []BatchStatus{BatchFailed, BatchCancelled} {
		b := NewBatch("", Whitelist, SourceAPI, 1, time.Now())
		require.NoError(t, b.Transition(next, time.Now()))
		assert.Equal(t, next, b.Status)
	}
	b := NewBatch("", Whitelist, SourceAPI, 1, time.Now())
	assert.Error(t, b.Transition(BatchPending, time.Now()))
}

func TestContentRecord_Fingerprint(t *testing.T) {
	base := ContentRecord{ItemID: "V1", Type: ItemVideo, Title: "t", ChannelName: "c", Description: "d", Tags: []string{"a", "b"}}
	fp := base.Fingerprint()
	assert.Equal(t, fp, base.Fingerprint(), "fingerprint must be stable")

	same := base
	same.ItemID = " V1 "
	assert.Equal(t, fp, same.Fingerprint(), "canonical id should not change the fingerprint")

	mutations := []func(r *ContentRecord){
		func(r *ContentRecord) { r.ItemID = "V2" },
		func(r *ContentRecord) { r.Type = ItemChannel },
		func(r *ContentRecord) { r.Title = "t2" },
		func(r *ContentRecord) { r.ChannelName = "c2" },
		func(r *ContentRecord) { r.Description = "d2" },
		func(r *ContentRecord) { r.Tags = []string{"a"} },
		func(r *ContentRecord) { r.Tags = []string{"ab"} },
	}
	for i, mut := range mutations {
		r := base
		r.Tags = append([]string(nil), base.Tags...)
		mut(&r)
		assert.NotEqual(t, fp, r.Fingerprint(), "mutation %d must change fingerprint", i)
	}
}

func TestContentRecord_HasField(t *testing.T) {
	r := ContentRecord{Title: "x", ChannelName: "  ", Tags: []string{" ", ""}}
	assert.True(t, r.HasField(ScopeTitle))
	assert.False(t, r.HasField(ScopeChannel))
	assert.False(t, r.HasField(ScopeDescription))
	assert.False(t, r.HasField(ScopeTags))
	r.Tags = append(r.Tags, "music")
	assert.True(t, r.HasField(ScopeTags))
	assert.Equal(t, " \n\nmusic", r.Field(ScopeTags))
}

func TestFilterResult_JSON(t *testing.T) {
	r := FilterResult{
		Blocked:      true,
		MatchedBy:    PatternMatch{RuleID: "p1", CategoryID: "c1", PatternKind: PatternKeyword},
		Confidence:   0.8,
		ResponseTime: 1500 * time.Microsecond,
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "pattern", got["matchedBy"])
	assert.Equal(t, "p1", got["matchedRuleId"])
	assert.Equal(t, "c1", got["categoryId"])
	assert.InDelta(t, 1.5, got["responseTimeMs"], 1e-9)
	assert.Equal(t, false, got["allowed"])

	b, err = json.Marshal(AllowedResult())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"matchedBy":"none"`)
	assert.NotContains(t, string(b), "matchedRuleId")
}

func TestFilterResult_Accessors(t *testing.T) {
	assert.Equal(t, MatchNone, FilterResult{}.MatchKind())
	assert.Equal(t, "", FilterResult{MatchedBy: IdentifierBlacklistMatch{}}.MatchedRuleID())
	assert.Equal(t, "r", FilterResult{MatchedBy: PatternMatch{RuleID: "r"}}.MatchedRuleID())
	assert.Equal(t, "identifier-whitelist", IdentifierWhitelistMatch{}.Kind().String())

	fo := FailOpenResult()
	assert.True(t, fo.Allowed)
	assert.False(t, fo.Blocked || fo.Whitelisted)
	assert.Zero(t, fo.Confidence)
}

func TestErrors(t *testing.T) {
	assert.ErrorIs(t, ConflictError("video:%s", "V1"), ErrConflict)
	assert.ErrorIs(t, NotFoundError("pattern %s", "p"), ErrNotFound)

	cause := errors.New("database not open")
	sys := &SystemicImportError{BatchID: "b", Cause: cause}
	assert.ErrorIs(t, sys, ErrSystemicImport)
	assert.ErrorIs(t, sys, cause)

	me := &MatchEvaluationError{PatternID: "p", Cause: "boom"}
	assert.ErrorIs(t, me, ErrMatchEvaluation)
	assert.True(t, strings.Contains(me.Error(), "boom"))

	var empty *ValidationError
	assert.NoError(t, empty.OrNil())
	v := NewValidationError("name", "required")
	assert.EqualError(t, v, "validation failed: name: required")
}
