package core

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// A confirmation authorizes exactly one post, no matter how the calls
// interleave: the number of posted messages always equals the number of
// publish calls that carried or held a confirmation.
func TestPublish_OneConfirmationOnePost(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		poster := &fakePoster{}
		pub := NewPublisher(poster, "standups", nil)
		rc := readyContext()

		expectedPosts := 0
		confirmed := false

		ops := rapid.SliceOfN(rapid.SampledFrom([]string{
			"confirm", "publish", "publish_confirmed", "drift",
		}), 1, 30).Draw(t, "ops")

		for i, op := range ops {
			switch op {
			case "confirm":
				pub.Confirm(rc)
				confirmed = true
			case "publish":
				result := pub.Publish(rc, "", false)
				if confirmed {
					if result.State != PublishPosted {
						t.Fatalf("op %d: expected posted, got %s: %s", i, result.State, result.Message)
					}
					expectedPosts++
					confirmed = false
				} else if result.State != PublishPreview {
					t.Fatalf("op %d: expected preview, got %s: %s", i, result.State, result.Message)
				}
			case "publish_confirmed":
				result := pub.Publish(rc, "", true)
				if result.State != PublishPosted {
					t.Fatalf("op %d: expected posted, got %s: %s", i, result.State, result.Message)
				}
				expectedPosts++
				confirmed = false
			case "drift":
				rc.CurrentStandup = fmt.Sprintf("Revised standup %d.", i)
			}
		}

		if len(poster.posts) != expectedPosts {
			t.Fatalf("expected %d posts, got %d", expectedPosts, len(poster.posts))
		}
	})
}

// Whatever was staged at preview time is what a later confirmed publish
// sends, regardless of how the session standup drifts in between.
func TestPublish_PostedContentMatchesPreview(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		poster := &fakePoster{}
		pub := NewPublisher(poster, "standups", nil)
		rc := readyContext()

		previewed := rapid.StringMatching(`[a-zA-Z ]{1,80}`).Draw(t, "previewed")
		rc.CurrentStandup = previewed

		if result := pub.Publish(rc, "", false); result.State != PublishPreview {
			t.Fatalf("expected preview, got %s", result.State)
		}

		drifts := rapid.IntRange(0, 5).Draw(t, "drifts")
		for i := 0; i < drifts; i++ {
			rc.CurrentStandup = rapid.StringMatching(`[a-zA-Z ]{1,80}`).Draw(t, "drift")
		}

		if result := pub.Publish(rc, "", true); result.State != PublishPosted {
			t.Fatalf("expected posted, got %s", result.State)
		}
		if poster.posts[0].text != previewed {
			t.Fatalf("posted %q, previewed %q", poster.posts[0].text, previewed)
		}
	})
}
