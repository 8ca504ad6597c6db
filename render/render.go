package render

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"dealtracker/services"
)

// PageData feeds the digest page template.
type PageData struct {
	Digest      *services.Digest
	SignupEmbed template.HTML
}

var pageTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="en"><head>
<meta charset="UTF-8"><title>Top Deals for {{.Digest.Date}}</title>
<style>
body { font-family: sans-serif; max-width: 900px; margin: auto; padding: 1rem; }
h1 { text-align: center; }
#signup { margin-bottom: 1.5rem; padding: 1rem; background: #f5f5f5; border-radius: 5px; }
#filters { margin-bottom: 1rem; }
.deal { border-bottom: 1px solid #ddd; padding: 0.75rem 0; display: flex; align-items: center; }
.deal img { width: 100px; height: auto; margin-right: 1rem; }
.info { flex: 1; }
.category { display: inline-block; background: #eef; color: #225; padding: 0.2rem 0.5rem; border-radius: 3px; font-size: 0.8rem; margin-bottom: 0.5rem; }
.price { font-weight: bold; color: green; }
.orig { text-decoration: line-through; color: #888; margin-left: 0.5rem; }
.badge { background: gold; color: #333; padding: 0.2rem 0.5rem; border-radius: 4px; font-size: 0.8rem; margin-left: 0.5rem; }
</style></head><body>
{{if .SignupEmbed}}<div id="signup"><h2>📬 Get these deals by email</h2>
{{.SignupEmbed}}
</div>{{end}}
<h1>Top Deals for {{.Digest.Date}}</h1>
<div id="filters">
{{range .Digest.Categories}}<label><input type="checkbox" value="{{.}}" checked> {{.}}</label>
{{end}}</div>
{{range .Digest.Deals}}<div class="deal" data-category="{{.Category}}">
{{if .Image}}<img src="{{.Image}}" alt="{{.Title}}" />{{end}}
<div class="info">
<a href="{{.URL}}" target="_blank"><h2>{{.Title}}{{if .IsNewLow}} <span class="badge">🎉 New Low!</span>{{end}}</h2></a>
<div class="category">{{.Category}}</div>
<div><span class="price">{{.Price}}</span>{{if .OrigPrice}}<span class="orig">{{.OrigPrice}}</span>{{end}}</div>
</div></div>
{{end}}
<script>
document.querySelectorAll('#filters input[type="checkbox"]').forEach(cb => {
  cb.addEventListener('change', () => {
    const cat = cb.value;
    document.querySelectorAll('.deal').forEach(card => {
      if (card.dataset.category === cat) {
        card.style.display = cb.checked ? '' : 'none';
      }
    });
  });
});
</script>
</body></html>
`))

// Page writes the rendered digest page.
func Page(w io.Writer, digest *services.Digest, signupEmbed string) error {
	data := PageData{
		Digest:      digest,
		SignupEmbed: template.HTML(signupEmbed),
	}
	return pageTemplate.Execute(w, data)
}

// WriteFile renders the digest page to path.
func WriteFile(path string, digest *services.Digest, signupEmbed string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := Page(f, digest, signupEmbed); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
