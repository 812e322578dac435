// AngelaMos | 2026
// pages.go

package auth

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type page struct {
	Title    string
	Heading  string
	Action   string
	Fields   []field
	Note     string
	AltHref  string
	AltLabel string
}

type field struct {
	Name  string
	Type  string
	Label string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<main>
<h1>{{.Heading}}</h1>
{{if .Action}}<form id="form" data-action="{{.Action}}">
{{range .Fields}}<label>{{.Label}} <input name="{{.Name}}" type="{{.Type}}" required></label>
{{end}}<button type="submit">{{$.Heading}}</button>
</form>
<p id="result" role="alert"></p>{{end}}
{{if .Note}}<p>{{.Note}}</p>{{end}}
{{if .AltHref}}<p><a href="{{.AltHref}}">{{.AltLabel}}</a></p>{{end}}
</main>
{{if .Action}}<script>
document.getElementById("form").addEventListener("submit", async (e) => {
  e.preventDefault();
  const form = e.target;
  const body = Object.fromEntries(new FormData(form));
  const res = await fetch(form.dataset.action, {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify(body),
  });
  const data = await res.json();
  if (res.ok && data.redirectTo) { window.location.assign(data.redirectTo); return; }
  document.getElementById("result").textContent = data.message || "";
});
</script>{{end}}
</body>
</html>
`))

var (
	loginPage = page{
		Title:   "Sign in",
		Heading: "Sign in",
		Action:  "/api/auth/login",
		Fields: []field{
			{Name: "email", Type: "email", Label: "Email"},
			{Name: "password", Type: "password", Label: "Password"},
		},
		AltHref:  "/auth/register",
		AltLabel: "Create an account",
	}
	registerPage = page{
		Title:   "Create account",
		Heading: "Create account",
		Action:  "/api/auth/register",
		Fields: []field{
			{Name: "name", Type: "text", Label: "Name"},
			{Name: "email", Type: "email", Label: "Email"},
			{Name: "password", Type: "password", Label: "Password"},
		},
		AltHref:  "/auth/login",
		AltLabel: "Already registered? Sign in",
	}
	forgotPasswordPage = page{
		Title:    "Forgot password",
		Heading:  "Forgot password",
		Note:     "Password resets are handled by support. Contact us to regain access.",
		AltHref:  "/auth/login",
		AltLabel: "Back to sign in",
	}
	homePage = page{
		Title:    "NeoShop",
		Heading:  "NeoShop",
		AltHref:  "/auth/login",
		AltLabel: "Sign in",
	}
)

// RegisterPages mounts the public HTML stubs the gate redirects to.
func (h *Handler) RegisterPages(r chi.Router) {
	r.Get("/", renderPage(homePage))
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", renderPage(loginPage))
		r.Get("/register", renderPage(registerPage))
		r.Get("/forgot-password", renderPage(forgotPasswordPage))
	})
}

func renderPage(p page) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, p); err != nil {
			slog.Error("render page", "title", p.Title, "error", err)
		}
	}
}
