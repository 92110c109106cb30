package classify

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		path     string
		expected Class
	}{
		// Static assets
		{"/css/site.css", ClassStatic},
		{"/js/app.js", ClassStatic},
		{"/images/cover.png", ClassStatic},
		{"/icons/icon-192.png", ClassStatic},
		{"/deep/nested/style.css", ClassStatic},
		{"/favicon.ico", ClassStatic},
		{"/logo.svg", ClassStatic},

		// Audio digests
		{"/en_GB/audio/digest_2026_01_05.mp3", ClassAudio},
		{"/audio/latest.m4a", ClassAudio},
		{"/de_DE/audio/readme", ClassAudio}, // audio dir wins over extensionless
		{"/episode.ogg", ClassAudio},

		// Documents
		{"/", ClassDocument},
		{"", ClassDocument},
		{"/index.html", ClassDocument},
		{"/en_GB/news.html", ClassDocument},
		{"/en_GB/news", ClassDocument},
		{"/about", ClassDocument},

		// Other
		{"/data/feed.xml", ClassOther},
		{"/archive/digest.zip", ClassOther},
		{"/podcast.rss", ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Classify(tt.path); got != tt.expected {
				t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.expected)
			}
		})
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if got := Classify("/CSS/SITE.CSS"); got != ClassStatic {
		t.Errorf("Classify uppercase static path = %s, want %s", got, ClassStatic)
	}
	if got := Classify("/Audio/Digest.MP3"); got != ClassAudio {
		t.Errorf("Classify uppercase audio path = %s, want %s", got, ClassAudio)
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// A stylesheet under an audio directory is still static: static rules
	// apply first.
	if got := Classify("/audio/player.css"); got != ClassStatic {
		t.Errorf("Classify(/audio/player.css) = %s, want %s", got, ClassStatic)
	}
}

func TestIsNavigable(t *testing.T) {
	if !IsNavigable(ClassDocument) {
		t.Error("Document should be navigable")
	}
	for _, c := range []Class{ClassStatic, ClassAudio, ClassOther} {
		if IsNavigable(c) {
			t.Errorf("%s should not be navigable", c)
		}
	}
}
