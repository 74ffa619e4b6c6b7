package shared

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tc := []struct {
		name string
		id   string
		want string
	}{
		{
			name: "underscores and extension",
			id:   "song_a.mp3",
			want: "song a",
		},
		{
			name: "hyphens and dots",
			id:   "artist-track.title.mp3",
			want: "artist track title",
		},
		{
			name: "mixed case",
			id:   "SoNg_TiTlE.mp3",
			want: "song title",
		},
		{
			name: "repeated separators",
			id:   "a__b--c.mp3",
			want: "a b c",
		},
		{
			name: "no extension",
			id:   "plain name",
			want: "plain name",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTitle(tt.id)
			if got != tt.want {
				t.Errorf("NormalizeTitle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds int
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00"},
		{name: "under a minute", seconds: 42, want: "0:42"},
		{name: "minutes", seconds: 215, want: "3:35"},
		{name: "hours", seconds: 3725, want: "1:02:05"},
		{name: "negative clamps", seconds: -5, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDuration(tt.seconds)
			if got != tt.want {
				t.Errorf("FormatDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
