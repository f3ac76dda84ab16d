package server

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Fashion Item Image Upload to Imgur</title>
<style>
body { font-family: sans-serif; max-width: 760px; margin: 2rem auto; }
.banner { background: #fdecea; color: #b71c1c; padding: .75rem 1rem; border-radius: 4px; margin: .5rem 0; }
.warning { background: #fff4e5; color: #8a4b00; padding: .75rem 1rem; border-radius: 4px; margin: .5rem 0; }
.result { border-top: 1px solid #ddd; padding: 1rem 0; }
</style>
</head>
<body>
<h1>Fashion Item Image Upload to Imgur</h1>
<form action="/upload" method="post" enctype="multipart/form-data">
  <label for="images">Choose an image of your fashion item...</label>
  <input id="images" type="file" name="images" accept="{{.Accept}}" multiple>
  <button type="submit">Upload to Imgur</button>
</form>
{{with .Error}}<div class="banner">{{.}}</div>{{end}}
{{range .Results}}
<div class="result">
  <p><strong>File Name:</strong> {{.Name}}</p>
  {{if .Error}}
  <div class="banner">{{.Error}}</div>
  {{else}}
  <h3>Image Metadata</h3>
  <p><strong>ID:</strong> {{.ID}}</p>
  <p><strong>Title:</strong> {{.Title}}</p>
  <p><strong>Public URL:</strong> <a href="{{.Link}}">{{.Link}}</a></p>
  <figure><img src="{{.Link}}" alt="{{.ID}}" width="300"><figcaption>{{.ID}}</figcaption></figure>
  {{with .Warning}}<div class="warning">{{.}}</div>{{end}}
  {{end}}
</div>
{{end}}
</body>
</html>
`))
