package format

import "testing"

func TestSelect_MergeCapableMP4(t *testing.T) {
	sel := Select("137", "mp4", true, &Descriptor{ID: "137", VCodec: "avc1", ACodec: "none"})

	want := "(137+bestaudio[ext=m4a]/bestaudio[acodec*=mp4a]/bestaudio[acodec=aac]/bestaudio)/137/best"
	if sel.Expr != want {
		t.Errorf("expected %q, got %q", want, sel.Expr)
	}
	if sel.Container != "mp4" {
		t.Errorf("expected mp4, got %s", sel.Container)
	}
}

func TestSelect_MergeCapableWebM(t *testing.T) {
	sel := Select("248", "webm", true, nil)

	want := "(248+bestaudio[ext=webm]/bestaudio[acodec=opus]/bestaudio)/248/best"
	if sel.Expr != want {
		t.Errorf("expected %q, got %q", want, sel.Expr)
	}
}

func TestSelect_MergeCapableUnknownContainer(t *testing.T) {
	sel := Select("301", "flv", true, nil)

	want := "(301+bestaudio)/301/best"
	if sel.Expr != want {
		t.Errorf("expected %q, got %q", want, sel.Expr)
	}
}

func TestSelect_NoMerge_ProgressiveFormat(t *testing.T) {
	// The requested stream already carries audio, take it directly.
	desc := &Descriptor{ID: "18", VCodec: "avc1", ACodec: "mp4a.40.2"}
	sel := Select("18", "mp4", false, desc)

	if sel.Expr != "18" {
		t.Errorf("expected direct id, got %q", sel.Expr)
	}
}

func TestSelect_NoMerge_VideoOnlyFallsBackToProgressive(t *testing.T) {
	desc := &Descriptor{ID: "137", VCodec: "avc1", ACodec: "none"}
	sel := Select("137", "mp4", false, desc)

	want := "best[ext=mp4][acodec!=none][vcodec!=none]/best[acodec!=none][vcodec!=none]"
	if sel.Expr != want {
		t.Errorf("expected progressive fallback, got %q", sel.Expr)
	}
}

func TestSelect_NoMerge_NilDescriptor(t *testing.T) {
	sel := Select("137", "webm", false, nil)

	want := "best[ext=webm][acodec!=none][vcodec!=none]/best[acodec!=none][vcodec!=none]"
	if sel.Expr != want {
		t.Errorf("expected progressive fallback, got %q", sel.Expr)
	}
}

func TestSelect_NoMerge_UnknownContainer(t *testing.T) {
	sel := Select("137", "avi", false, nil)

	want := "best[acodec!=none][vcodec!=none]"
	if sel.Expr != want {
		t.Errorf("expected any-container progressive, got %q", sel.Expr)
	}
}

func TestSelect_ContainerCaseInsensitive(t *testing.T) {
	sel := Select("137", "MP4", true, nil)

	if sel.Container != "mp4" {
		t.Errorf("expected lowercase container, got %s", sel.Container)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	desc := &Descriptor{ID: "137", VCodec: "avc1", ACodec: "none"}
	first := Select("137", "mp4", true, desc)
	for i := 0; i < 10; i++ {
		if got := Select("137", "mp4", true, desc); got != first {
			t.Fatalf("expected identical selection, got %+v vs %+v", got, first)
		}
	}
}

func TestDescriptor_CodecPresence(t *testing.T) {
	cases := []struct {
		name  string
		d     Descriptor
		video bool
		audio bool
	}{
		{"progressive", Descriptor{VCodec: "avc1", ACodec: "mp4a"}, true, true},
		{"video only", Descriptor{VCodec: "vp9", ACodec: "none"}, true, false},
		{"audio only", Descriptor{VCodec: "none", ACodec: "opus"}, false, true},
		{"empty codecs", Descriptor{}, false, false},
	}
	for _, tc := range cases {
		if tc.d.HasVideo() != tc.video {
			t.Errorf("%s: HasVideo = %v, want %v", tc.name, tc.d.HasVideo(), tc.video)
		}
		if tc.d.HasAudio() != tc.audio {
			t.Errorf("%s: HasAudio = %v, want %v", tc.name, tc.d.HasAudio(), tc.audio)
		}
	}
}
