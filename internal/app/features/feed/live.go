// internal/app/features/feed/live.go
package feed

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strconv"

	"github.com/leirefolket/leirefolket/internal/app/live"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
)

// postView is one feed entry with its interaction state for the viewer.
type postView struct {
	models.Post
	BodyHTML template.HTML
	Likes    int64
	Liked    bool
	Comments []models.Comment
	CanEdit  bool
}

// loadFeed assembles the newest posts with their comments and like state
// for one viewer.
func (h *Handler) loadFeed(ctx context.Context, viewerUID string, limit int64) ([]postView, error) {
	posts, err := h.Posts.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		v := postView{Post: p}

		if v.Likes, err = h.Reactions.CountByPost(ctx, p.ID); err != nil {
			return nil, err
		}
		if v.Liked, err = h.Reactions.HasLiked(ctx, p.ID, viewerUID); err != nil {
			return nil, err
		}
		if v.Comments, err = h.Comments.ListByPost(ctx, p.ID); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /medlem/live/feed – SSE region                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLive streams the feed region. Writes to posts, comments, or
// reactions repaint the whole region; the client swaps it in place.
func (h *Handler) ServeLive(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	limit := NormalizeLimit(atoi(r.URL.Query().Get("antall")))

	// The limit is part of the key: loading more re-binds the region and
	// the old subscription is dropped.
	key := u.ID + ":feed:" + strconv.Itoa(limit)
	q := feedQuery(limit)

	render := func(s live.Snapshot) (string, error) {
		if s.Err != nil {
			return `<div class="live-error">Direkteoppdatering falt ut. Last siden på nytt.</div>`, nil
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		views, err := h.loadFeed(ctx, u.ID, int64(limit))
		if err != nil {
			return "", err
		}
		return renderFeedFragment(views, u, limit)
	}

	live.ServeRegion(w, r, h.Binder, h.Cache, h.Log, key, q, render)
}

// feedQuery is the live query behind the feed region. The rendered
// fragment shows like counts and comments alongside the posts, so writes
// to those collections must repaint the region too.
func feedQuery(limit int) live.Query {
	return live.Query{
		Collection: "posts",
		Sort:       bson.D{{Key: "created_at", Value: -1}},
		Limit:      int64(limit),
		Also:       []string{"comments", "reactions"},
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| fragment rendering                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type feedFragmentData struct {
	Posts     []postView
	NextLimit int
	HasMore   bool
}

// bodyPolicy re-sanitizes post bodies at render time. Content is already
// sanitized on write, but records imported from the old site predate that.
var bodyPolicy = bluemonday.UGCPolicy()

// renderFeedFragment renders the post list markup shared by the initial
// page load and every SSE repaint.
func renderFeedFragment(views []postView, u *auth.SessionUser, limit int) (string, error) {
	role := models.ParseRole(u.Role)
	for i := range views {
		views[i].CanEdit = role.CanDeleteContent() ||
			(role.CanPublish() && views[i].AuthorID == u.ID)
		views[i].BodyHTML = template.HTML(bodyPolicy.Sanitize(views[i].Content))
	}

	var buf bytes.Buffer
	err := feedFragmentTmpl.Execute(&buf, feedFragmentData{
		Posts:     views,
		NextLimit: NormalizeLimit(limit + FeedStep),
		HasMore:   len(views) == limit && limit < FeedMaxLimit,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FeedFragmentHTML is renderFeedFragment for the page handler, typed for
// direct template embedding.
func feedFragmentHTML(views []postView, u *auth.SessionUser, limit int) (template.HTML, error) {
	s, err := renderFeedFragment(views, u, limit)
	return template.HTML(s), err
}

// The fragment uses hx-post only; the CSRF token travels in the
// X-CSRF-Token header inherited from the region wrapper, so repainted
// fragments never carry a stale form token.
var feedFragmentTmpl = template.Must(template.New("feed_fragment").Parse(`
{{range .Posts}}
<article class="post" id="post-{{.ID.Hex}}">
  <header>
    <h3>{{.Title}}</h3>
    <p class="post-meta">{{.AuthorName}} · {{.CreatedAt.Format "02.01.2006 15:04"}}</p>
  </header>
  <div class="post-body">{{.BodyHTML}}</div>
  <footer class="post-actions">
    <button class="linklike" hx-post="/medlem/innlegg/{{.ID.Hex}}/liker" hx-swap="none">{{if .Liked}}♥{{else}}♡{{end}} {{.Likes}}</button>
    {{if .CanEdit}}
    <button class="linklike danger" hx-post="/medlem/innlegg/{{.ID.Hex}}/slett" hx-confirm="Slette innlegget?" hx-swap="none">Slett innlegg</button>
    {{end}}
  </footer>
  <section class="comments">
    {{range .Comments}}
    <div class="comment">
      {{if .AuthorPhoto}}<img class="avatar" src="{{.AuthorPhoto}}" alt="">{{end}}
      <span class="comment-author">{{.AuthorName}}</span>
      <span class="comment-text">{{.Text}}</span>
      <button class="linklike danger" title="Slett" hx-post="/medlem/kommentar/{{.ID.Hex}}/slett" hx-swap="none">×</button>
    </div>
    {{end}}
    <form hx-post="/medlem/innlegg/{{.ID.Hex}}/kommentar" hx-swap="none">
      <input type="text" name="text" placeholder="Skriv en kommentar …" required>
      <button type="submit">Kommenter</button>
    </form>
  </section>
</article>
{{else}}
<p class="empty">Ingen innlegg ennå.</p>
{{end}}
{{if .HasMore}}
<p class="load-more">
  <a href="/medlem?antall={{.NextLimit}}">Vis flere innlegg</a>
</p>
{{end}}
`))
