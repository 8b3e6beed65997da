package feed

import (
	"strings"
	"testing"

	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFeedQuery_WatchesInteractionCollections(t *testing.T) {
	q := feedQuery(10)

	if q.Collection != "posts" {
		t.Fatalf("collection: got %q, want posts", q.Collection)
	}
	for _, want := range []string{"comments", "reactions"} {
		found := false
		for _, c := range q.Also {
			if c == want {
				found = true
			}
		}
		if !found {
			t.Errorf("likes and comments repaint the feed, so %q must be watched; got %v", want, q.Also)
		}
	}
	if q.Limit != 10 {
		t.Errorf("limit: got %d, want 10", q.Limit)
	}
}

func TestRenderFeedFragment_BodyMarkup(t *testing.T) {
	views := []postView{{
		Post: models.Post{
			ID:      primitive.NewObjectID(),
			Title:   "Rakukveld",
			Content: "<b>leire</b> og glasur<script>alert(1)</script>",
		},
	}}

	out, err := renderFeedFragment(views, &auth.SessionUser{ID: "u1", Role: "member"}, FeedStep)
	if err != nil {
		t.Fatalf("renderFeedFragment: %v", err)
	}
	if !strings.Contains(out, "<b>leire</b>") {
		t.Errorf("sanitized markup must render unescaped, got %q", out)
	}
	if strings.Contains(out, "&lt;b&gt;") {
		t.Errorf("body must not be double-escaped, got %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("script must be stripped from the body, got %q", out)
	}
}

func TestRenderFeedFragment_DeleteButtonFollowsRole(t *testing.T) {
	own := postView{Post: models.Post{ID: primitive.NewObjectID(), Title: "Eget", AuthorID: "u1"}}
	other := postView{Post: models.Post{ID: primitive.NewObjectID(), Title: "Andres", AuthorID: "u2"}}

	cases := []struct {
		name  string
		user  *auth.SessionUser
		posts []postView
		want  int
	}{
		{"member sees none", &auth.SessionUser{ID: "u1", Role: "member"}, []postView{own, other}, 0},
		{"contributor sees own only", &auth.SessionUser{ID: "u1", Role: "contributor"}, []postView{own, other}, 1},
		{"admin sees all", &auth.SessionUser{ID: "u9", Role: "admin"}, []postView{own, other}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := renderFeedFragment(append([]postView(nil), tc.posts...), tc.user, FeedStep)
			if err != nil {
				t.Fatalf("renderFeedFragment: %v", err)
			}
			if got := strings.Count(out, "Slett innlegg"); got != tc.want {
				t.Errorf("delete buttons: got %d, want %d", got, tc.want)
			}
		})
	}
}
