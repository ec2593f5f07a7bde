package models

import "testing"

func TestDeriveContentType(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{"image/png", ContentTypeImage},
		{"image/jpeg", ContentTypeImage},
		{"video/mp4", ContentTypeVideo},
		{"application/pdf", ContentTypeFile},
		{"text/plain", ContentTypeFile},
		{"", ContentTypeFile},
	}
	for _, tc := range cases {
		if got := DeriveContentType(tc.mime); got != tc.want {
			t.Errorf("DeriveContentType(%q) = %q, want %q", tc.mime, got, tc.want)
		}
	}
}
