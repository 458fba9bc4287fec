package activities

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type fakeRequester struct {
	method, url, bucket string
	data                interface{}
	body                []byte
	err                 error
}

func (f *fakeRequester) RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, _ ...discordgo.RequestOption) ([]byte, error) {
	f.method, f.url, f.data, f.bucket = method, urlStr, data, bucketID
	return f.body, f.err
}

func TestCreateActivityInvite(t *testing.T) {
	r := &fakeRequester{body: []byte(`{"code":"abc123"}`)}
	link, err := CreateActivityInvite(r, "voice1", YouTubeApplicationID)
	if err != nil {
		t.Fatal(err)
	}
	if link != "https://discord.gg/abc123" {
		t.Errorf("link = %q, want https://discord.gg/abc123", link)
	}
	if r.method != "POST" || r.url != discordgo.EndpointChannelInvites("voice1") || r.bucket != r.url {
		t.Errorf("request = %s %s (bucket %s)", r.method, r.url, r.bucket)
	}
	body, ok := r.data.(activityInvite)
	if !ok {
		t.Fatalf("data = %T, want activityInvite", r.data)
	}
	if body.TargetType != discordgo.InviteTargetEmbeddedApplication || body.TargetApplicationID != YouTubeApplicationID {
		t.Errorf("body = %+v", body)
	}
}

func TestCreateActivityInviteFailures(t *testing.T) {
	tests := []struct {
		name string
		r    *fakeRequester
	}{
		{"request", &fakeRequester{err: errors.New("missing permissions")}},
		{"no code", &fakeRequester{body: []byte(`{}`)}},
		{"bad body", &fakeRequester{body: []byte(`<html>`)}},
	}
	for _, tt := range tests {
		if _, err := CreateActivityInvite(tt.r, "voice1", YouTubeApplicationID); err == nil {
			t.Errorf("%s: CreateActivityInvite() = nil error", tt.name)
		}
	}
}

func TestYouTubeRequiresVoice(t *testing.T) {
	cmds := Commands()
	if len(cmds) != 1 || cmds[0].Name != "youtube" || !cmds[0].InVoiceChannel {
		t.Errorf("Commands() = %+v, want a voice-only /youtube", cmds)
	}
}
