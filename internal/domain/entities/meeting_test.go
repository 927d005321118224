package entities

import "testing"

func TestCanTransitionFrom(t *testing.T) {
	cases := []struct {
		name string
		from MeetingStatus
		to   MeetingStatus
		want bool
	}{
		{"pending to processing", MeetingStatusPending, MeetingStatusProcessing, true},
		{"processing to transcribed", MeetingStatusProcessing, MeetingStatusTranscribed, true},
		{"transcribed to ready", MeetingStatusTranscribed, MeetingStatusReady, true},
		{"processing to error", MeetingStatusProcessing, MeetingStatusError, true},
		{"transcribed to error", MeetingStatusTranscribed, MeetingStatusError, true},
		{"error to processing", MeetingStatusError, MeetingStatusProcessing, true},
		{"ready cannot regress to processing", MeetingStatusReady, MeetingStatusProcessing, false},
		{"ready cannot regress to transcribed", MeetingStatusReady, MeetingStatusTranscribed, false},
		{"ready cannot be marked error", MeetingStatusReady, MeetingStatusError, false},
		{"pending cannot be marked error", MeetingStatusPending, MeetingStatusError, false},
		{"pending cannot skip to ready", MeetingStatusPending, MeetingStatusReady, false},
		{"transcribed cannot go back to processing", MeetingStatusTranscribed, MeetingStatusProcessing, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.to.CanTransitionFrom(tc.from); got != tc.want {
				t.Errorf("CanTransitionFrom(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if !MeetingStatusReady.IsTerminal() {
		t.Error("ready should be terminal")
	}
	if !MeetingStatusError.IsTerminal() {
		t.Error("error should be terminal for the automatic pipeline")
	}
	if MeetingStatusProcessing.IsTerminal() {
		t.Error("processing should not be terminal")
	}
}
