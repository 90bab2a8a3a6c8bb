package views

import (
	"context"
	"time"

	"github.com/a-h/templ"

	"github.com/sidsin/blog/content"
)

// AdminLogin renders the sign-in page. flash is shown above the button.
func AdminLogin(flash, csrfToken string) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<div class="max-w-sm mx-auto py-24 text-center">`,
			`<h1 class="font-mono text-3xl font-medium mb-8">Admin</h1>`, "\n")
		if flash != "" {
			b.raw(`<p class="mb-6 text-accent" role="alert">`, esc(flash), `</p>`, "\n")
		}
		b.raw(`<form method="post" action="/admin/login" hx-boost="false">`,
			`<input type="hidden" name="_csrf" value="`, esc(csrfToken), `">`,
			`<button type="submit" class="btn-primary"> Sign in with Apple</button>`,
			"</form>\n</div>\n")
		return nil
	})
}

// Activity is one line of the dashboard audit trail.
type Activity struct {
	When   time.Time
	Action string
	Actor  string
	Detail string
}

func activityList(b *builder, events []Activity) {
	if len(events) == 0 {
		return
	}
	b.raw(`<section class="mt-12"><h2 class="font-mono text-2xl font-medium mb-4">Recent activity</h2>`,
		`<ul id="activity" class="font-mono text-sm">`)
	for _, ev := range events {
		b.raw(`<li class="flex gap-4 py-1"><time datetime="`, ev.When.UTC().Format(time.RFC3339), `" class="text-secondary w-40 shrink-0">`,
			ev.When.UTC().Format("2006-01-02 15:04"), `</time><span>`, esc(ev.Action), `</span>`)
		if ev.Actor != "" {
			b.raw(`<span class="text-secondary">`, esc(ev.Actor), `</span>`)
		}
		if ev.Detail != "" {
			b.raw(`<span class="text-secondary">`, esc(ev.Detail), `</span>`)
		}
		b.raw(`</li>`)
	}
	b.raw("</ul></section>\n")
}

// AdminDashboard lists drafts with publish buttons, the recent audit
// trail, and links to the authoring forms.
func AdminDashboard(email string, drafts []content.Post, activity []Activity, csrfToken string) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<h1 class="font-mono text-3xl font-medium mb-2">Admin</h1>`,
			`<p class="text-secondary mb-8">Signed in as `, esc(email), `</p>`, "\n",
			`<ul class="mb-12 flex gap-4 font-mono text-sm">`,
			`<li><a href="/admin/note" class="link-accent">New note</a></li>`,
			`<li><a href="/admin/link-log" class="link-accent">New link log</a></li></ul>`, "\n",
			`<section><h2 class="font-mono text-2xl font-medium mb-4">Drafts</h2>`, "\n")
		if len(drafts) == 0 {
			b.raw(`<p class="text-secondary">No drafts.</p>`)
		} else {
			b.raw(`<ul id="drafts">`)
			for _, d := range drafts {
				b.raw(`<li class="flex gap-6 py-2 items-center" id="draft-`, esc(d.Slug), `">`,
					`<span class="font-mono text-sm w-24 shrink-0 text-secondary">`, esc(ShortDate(d)), `</span>`,
					`<a href="`, esc(PostURL(d.Slug)), `" class="text-primary">`, esc(d.Title), `</a>`,
					`<button type="button" class="btn-secondary ml-auto" hx-post="/admin/api/publish" hx-vals='{"slug":"`, esc(d.Slug), `"}' hx-target="#draft-`, esc(d.Slug), `" hx-swap="beforeend">Publish</button></li>`)
			}
			b.raw(`</ul>`)
		}
		b.raw("</section>\n")
		activityList(b, activity)
		b.raw(`<form method="post" action="/admin/logout" class="mt-12" hx-boost="false">`,
			`<input type="hidden" name="_csrf" value="`, esc(csrfToken), `">`,
			`<button type="submit" class="link-accent">Sign out</button></form>`, "\n")
		return nil
	})
}

const submitScript = `<script>
(function(){
  var form = document.currentScript.previousElementSibling;
  var status = form.querySelector('[data-status]');
  form.addEventListener('submit', function(ev){
    ev.preventDefault();
    var data = Object.fromEntries(new FormData(form));
    data.draft = form.elements.draft.checked;
    fetch(form.action, {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(data)})
      .then(function(r){ return r.json().then(function(j){ return {ok: r.ok, body: j}; }); })
      .then(function(res){ status.textContent = res.ok ? 'Created ' + res.body.path : res.body.error; });
  });
  var fetchBtn = form.querySelector('[data-fetch-title]');
  if (fetchBtn) fetchBtn.addEventListener('click', function(){
    fetch('/admin/api/link-log/metadata?url=' + encodeURIComponent(form.elements.url.value))
      .then(function(r){ return r.json(); })
      .then(function(j){ if (j.title) form.elements.title.value = j.title; });
  });
})();
</script>`

func tagList(b *builder, tags []content.TagCount) {
	b.raw(`<datalist id="known-tags">`)
	for _, t := range tags {
		b.raw(`<option value="`, esc(t.Tag), `">`)
	}
	b.raw(`</datalist>`)
}

func commonFields(b *builder, tags []content.TagCount) {
	b.raw(`<label class="block mb-4">Description<input name="description" class="input w-full"></label>`,
		`<label class="block mb-4">Tags<input name="tags" list="known-tags" class="input w-full" placeholder="comma separated"></label>`)
	tagList(b, tags)
	b.raw(`<label class="block mb-4">Content<textarea name="content" rows="12" class="input w-full"></textarea></label>`,
		`<label class="block mb-6"><input type="checkbox" name="draft"> Save as draft</label>`,
		`<button type="submit" class="btn-primary">Create</button> <span data-status class="ml-4 text-secondary"></span>`)
}

// AdminNote renders the note authoring form.
func AdminNote(tags []content.TagCount) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<h1 class="font-mono text-3xl font-medium mb-6">New note</h1>`, "\n",
			`<form action="/admin/api/note" hx-boost="false">`,
			`<label class="block mb-4">Title<input name="title" required class="input w-full"></label>`)
		commonFields(b, tags)
		b.raw("</form>", submitScript, "\n")
		return nil
	})
}

// AdminLinkLog renders the link log authoring form.
func AdminLinkLog(tags []content.TagCount) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<h1 class="font-mono text-3xl font-medium mb-6">New link log</h1>`, "\n",
			`<form action="/admin/api/link-log" hx-boost="false">`,
			`<label class="block mb-4">URL<input name="url" type="url" required class="input w-full"></label>`,
			`<button type="button" data-fetch-title class="btn-secondary mb-4">Fetch title</button>`,
			`<label class="block mb-4">Title<input name="title" required class="input w-full"></label>`)
		commonFields(b, tags)
		b.raw("</form>", submitScript, "\n")
		return nil
	})
}
