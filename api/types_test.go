package api

import (
	"encoding/json"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestIssuer_JSON(t *testing.T) {
	issuer := Issuer{
		Name:         "de",
		Certificates: 2,
		LoadedFrom:   "source",
		LastAttempt:  Time(time.Date(2021, 6, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*60*60))),
		LastSuccess:  Time(time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)),
		Age:          Duration(90 * time.Minute),
	}

	body, err := json.Marshal(issuer)
	assert.NilError(t, err)

	expected := `{"name":"de","certificates":2,"loadedFrom":"source",` +
		`"lastAttempt":"2021-06-01T12:00:00Z","lastSuccess":"2021-06-01T12:00:00Z",` +
		`"nextRefresh":null,"age":"1h30m0s"}`
	assert.Equal(t, string(body), expected)

	var decoded Issuer
	assert.NilError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, time.Time(decoded.LastAttempt), time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC))
	assert.Assert(t, time.Time(decoded.NextRefresh).IsZero())
	assert.Equal(t, decoded.Age, Duration(90*time.Minute))
}

func TestTime_UnmarshalJSON(t *testing.T) {
	type testCase struct {
		name     string
		input    string
		expected time.Time
		err      string
	}

	run := func(t *testing.T, tc testCase) {
		var c struct {
			T Time `json:"t"`
		}
		err := json.Unmarshal([]byte(tc.input), &c)
		if tc.err != "" {
			assert.ErrorContains(t, err, tc.err)
			return
		}
		assert.NilError(t, err)
		assert.Equal(t, time.Time(c.T), tc.expected)
	}

	testCases := []testCase{
		{name: "null", input: `{"t":null}`},
		{name: "blank", input: `{"t":""}`},
		{name: "missing", input: `{}`},
		{
			name:     "value",
			input:    `{"t":"2021-06-02T01:00:00Z"}`,
			expected: time.Date(2021, 6, 2, 1, 0, 0, 0, time.UTC),
		},
		{
			name:     "converted to UTC",
			input:    `{"t":"2021-06-02T03:00:00+02:00"}`,
			expected: time.Date(2021, 6, 2, 1, 0, 0, 0, time.UTC),
		},
		{name: "invalid", input: `{"t":"tomorrow"}`, err: "cannot parse"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			run(t, tc)
		})
	}
}

func TestDuration_UnmarshalJSON_Invalid(t *testing.T) {
	var d Duration
	err := json.Unmarshal([]byte(`"soon"`), &d)
	assert.ErrorContains(t, err, `invalid duration "soon"`)
}

func TestTime_String(t *testing.T) {
	assert.Equal(t, Time{}.String(), "-")
	assert.Equal(t, Time(time.Date(2021, 6, 2, 1, 0, 0, 0, time.UTC)).String(), "2021-06-02T01:00:00Z")
}

func TestNewListResponse(t *testing.T) {
	res := NewListResponse[Issuer](nil)
	body, err := json.Marshal(res)
	assert.NilError(t, err)
	assert.Equal(t, string(body), `{"items":[],"count":0}`)

	res = NewListResponse([]Issuer{{Name: "de", Certificates: 2}})
	assert.Equal(t, res.Count, 1)
}
