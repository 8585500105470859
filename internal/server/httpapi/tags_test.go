package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/server/auth"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/services"
)

func adminHeader(t *testing.T, role string) []string {
	t.Helper()
	tok, err := auth.GenerateToken("ops", role, []byte(testAdminSecret), time.Minute)
	require.NoError(t, err)
	return []string{"Authorization", "Bearer " + tok}
}

func TestGarageTag(t *testing.T) {
	f := newFixture()
	f.neg.openID = "tag-1"
	f.tags.tag = &models.Tag{ID: "tag-1", Make: "Ducati", IsConfigured: true}

	rr := f.do(t, http.MethodGet, "/garage-tag?"+reqString(`{"eId":"v1:c:i"}`), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tag-1", f.tags.garageID)

	var got struct {
		Tag models.Tag `json:"tag"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Ducati", got.Tag.Make)
	assert.Empty(t, got.Tag.TagID)
}

func TestGarageTag_NotFound(t *testing.T) {
	f := newFixture()
	f.neg.openID = "tag-1"
	f.tags.err = common.ErrorNotFound

	rr := f.do(t, http.MethodGet, "/garage-tag?"+reqString(`{"eId":"v1:c:i"}`), "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"tag":"Not Found"}`, rr.Body.String())
}

func TestGarageTag_BadEnvelope(t *testing.T) {
	f := newFixture()
	f.neg.err = fmt.Errorf("%w: invalid envelope", common.ErrorCrypto)

	rr := f.do(t, http.MethodGet, "/garage-tag?"+reqString(`{"eId":"garbage"}`), "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, f.tags.garageID)
}

func TestAcquireTag(t *testing.T) {
	f := newFixture()
	f.tags.id = "abc123"

	rr := f.do(t, http.MethodPost, "/tags/acquire", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc123", rr.Body.String())
}

func TestConfigureTag(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{name: "ok", wantCode: http.StatusOK, wantOK: true},
		{name: "consumed token", err: common.ErrorAlreadyConsumed, wantCode: http.StatusConflict},
		{name: "expired token", err: common.ErrTokenExpired, wantCode: http.StatusUnauthorized},
		{name: "unknown token", err: common.ErrorNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.tags.err = tt.err

			rr := f.do(t, http.MethodPost, "/tags/configure", `{"tagId":"tok","make":"Honda","year":2020}`)
			require.Equal(t, tt.wantCode, rr.Code)

			var got resultMessage
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.wantOK, got.Success)
			require.NotNil(t, f.tags.configured)
			assert.Equal(t, "tok", f.tags.configured.TagID)
			assert.Equal(t, 2020, f.tags.configured.Year)
		})
	}
}

func TestConfigureTag_MalformedBody(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodPost, "/tags/configure", `{"tagId":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, f.tags.configured)
}

func TestSubmitTag(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{name: "ok", wantCode: http.StatusOK, wantOK: true},
		{name: "already configured", err: fmt.Errorf("%w: tag is already configured", common.ErrorAlreadyExists), wantCode: http.StatusConflict},
		{name: "unknown tag", err: common.ErrorNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.tags.err = tt.err

			rr := f.do(t, http.MethodPost, "/tags/submit", `{"tagId":"fresh+id","make":"Yamaha","model":"MT-07"}`)
			require.Equal(t, tt.wantCode, rr.Code)

			var got resultMessage
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.wantOK, got.Success)
			require.NotNil(t, f.tags.submitted)
			assert.Equal(t, "fresh+id", f.tags.submitted.TagID)
			assert.Nil(t, f.tags.configured, "submit must not go through the token path")
		})
	}
}

func TestSubmitTag_FromProvisioningURL(t *testing.T) {
	f := newFixture()
	f.neg.res = &services.Resolution{
		State: models.TagUnconfigured,
		URL:   "https://logm8.com/tag/create?token=" + url.QueryEscape("fresh+id"),
	}

	rr := f.do(t, http.MethodGet, "/onelifeurl-one-step?"+reqString(`{"eId":"v1:abc:def"}`), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var step struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &step))
	require.False(t, step.Success)

	u, err := url.Parse(step.URL)
	require.NoError(t, err)
	body, err := json.Marshal(models.TagProfile{TagID: u.Query().Get("token"), Make: "BMW"})
	require.NoError(t, err)

	rr = f.do(t, http.MethodPost, "/tags/submit", string(body))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, f.tags.submitted)
	assert.Equal(t, "fresh+id", f.tags.submitted.TagID)
	assert.Equal(t, "BMW", f.tags.submitted.Make)
}

func TestReplaceTag(t *testing.T) {
	f := newFixture()
	f.tags.migrated = 3

	rr := f.do(t, http.MethodPost, "/admin/tags/replace", `{"oldTagId":"a","newTagId":"b"}`, adminHeader(t, auth.RoleAdmin)...)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Successfully migrated 3 records.", rr.Body.String())
	assert.Equal(t, [2]string{"a", "b"}, f.tags.replaced)
}

func TestReplaceTag_Failure(t *testing.T) {
	f := newFixture()
	f.tags.err = fmt.Errorf("%w: %w", common.ErrorInternal, errors.New("redis down"))

	rr := f.do(t, http.MethodPost, "/admin/tags/replace", `{"oldTagId":"a","newTagId":"b"}`, adminHeader(t, auth.RoleAdmin)...)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestReplaceTag_RequiresAdmin(t *testing.T) {
	tests := []struct {
		name string
		hdr  []string
	}{
		{name: "no header"},
		{name: "not bearer", hdr: []string{"Authorization", "Basic Zm9vOmJhcg=="}},
		{name: "garbage token", hdr: []string{"Authorization", "Bearer nope"}},
		{name: "wrong role", hdr: adminHeader(t, "mechanic")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(t, http.MethodPost, "/admin/tags/replace", `{"oldTagId":"a","newTagId":"b"}`, tt.hdr...)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, [2]string{}, f.tags.replaced)
		})
	}
}
