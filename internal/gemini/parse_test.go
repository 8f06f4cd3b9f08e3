package gemini

import (
	"errors"
	"testing"
	"time"
)

const validJSON = `{
  "hasWorkZone": true,
  "confidence": 0.92,
  "riskScore": 7,
  "workers": 3,
  "vehicles": 2,
  "barriers": true,
  "hazards": ["workers near live lane"],
  "violations": ["no advance warning signs"],
  "recommendations": ["deploy arrow board"]
}`

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare json", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  \n```json\n{\"a\":1}\n```\n ", want: `{"a":1}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := stripFences(tc.in); got != tc.want {
				t.Fatalf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseDetection(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	result, err := parseDetection(validJSON, "gemini-2.0-flash-exp", now)
	if err != nil {
		t.Fatalf("parseDetection: %v", err)
	}
	if !result.HasWorkZone || result.RiskScore != 7 || result.Workers != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.AnalyzedAt != now {
		t.Errorf("analyzedAt = %v, want %v", result.AnalyzedAt, now)
	}
	if len(result.Hazards) != 1 || result.Hazards[0] != "workers near live lane" {
		t.Errorf("hazards = %v", result.Hazards)
	}
}

func TestParseDetectionFencedEqualsBare(t *testing.T) {
	now := time.Now()
	bare, err := parseDetection(validJSON, "m", now)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	fenced, err := parseDetection("```json\n"+validJSON+"\n```", "m", now)
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if bare.RiskScore != fenced.RiskScore || bare.Confidence != fenced.Confidence {
		t.Fatalf("fenced parse differs: %+v vs %+v", bare, fenced)
	}
}

func TestParseDetectionClampsConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{name: "above one", in: `{"hasWorkZone":true,"confidence":1.5,"riskScore":5}`, want: 1.0},
		{name: "below zero", in: `{"hasWorkZone":true,"confidence":-0.2,"riskScore":5}`, want: 0.0},
		{name: "in range", in: `{"hasWorkZone":true,"confidence":0.5,"riskScore":5}`, want: 0.5},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseDetection(tc.in, "m", time.Now())
			if err != nil {
				t.Fatalf("parseDetection: %v", err)
			}
			if result.Confidence != tc.want {
				t.Fatalf("confidence = %f, want %f", result.Confidence, tc.want)
			}
		})
	}
}

func TestParseDetectionMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "not json", in: "the image shows a work zone"},
		{name: "risk score zero with hazard", in: `{"hasWorkZone":true,"confidence":0.9,"riskScore":0}`},
		{name: "risk score eleven", in: `{"hasWorkZone":true,"confidence":0.9,"riskScore":11}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseDetection(tc.in, "m", time.Now())
			if err == nil {
				t.Fatal("expected error")
			}
			var cerr *ClassificationError
			if !errors.As(err, &cerr) {
				t.Fatalf("error type %T, want *ClassificationError", err)
			}
			if cerr.Kind != ErrMalformedResponse {
				t.Fatalf("kind = %v, want malformed_response", cerr.Kind)
			}
		})
	}
}

func TestParseDetectionNoHazardIgnoresRiskRange(t *testing.T) {
	// The model reports riskScore 0 on clean frames; that is fine when
	// hasWorkZone is false because downstream never reads it.
	result, err := parseDetection(`{"hasWorkZone":false,"confidence":0.8,"riskScore":0}`, "m", time.Now())
	if err != nil {
		t.Fatalf("parseDetection: %v", err)
	}
	if result.HasWorkZone {
		t.Fatal("expected no work zone")
	}
}
