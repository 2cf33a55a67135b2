package bundle

import (
	"archive/zip"
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/render"
)

const (
	IndexFile      = "index.html"
	StyleFile      = "assets/style.css"
	ScriptFile     = "assets/script.js"
	ReadmeFile     = "README.md"
	DeploymentFile = "DEPLOYMENT.md"
	MetadataFile   = ".site_metadata.json"

	noDescription = "Aucune description"
)

//go:embed docs/README.md.tmpl docs/DEPLOYMENT.md
var docsFS embed.FS

var readmeTemplate = template.Must(template.ParseFS(docsFS, "docs/README.md.tmpl"))

type File struct {
	Path string
	Data []byte
}

// Tree is the ordered list of files making up a bundle. Paths are slash separated and relative.
type Tree []File

func (t Tree) Lookup(path string) ([]byte, bool) {
	for _, f := range t {
		if f.Path == path {
			return f.Data, true
		}
	}
	return nil, false
}

type Docs struct {
	Name        string
	Description string
	GeneratedAt time.Time
}

type readmeData struct {
	Name        string
	Summary     string
	Description string
	GeneratedAt string
}

func site(rendered render.Rendered) Tree {
	tree := Tree{{Path: IndexFile, Data: []byte(rendered.HTML)}}
	if rendered.CSS != "" {
		tree = append(tree, File{Path: StyleFile, Data: []byte(rendered.CSS)})
	}
	if rendered.JS != "" {
		tree = append(tree, File{Path: ScriptFile, Data: []byte(rendered.JS)})
	}
	return tree
}

// Materialize builds the tree written to the hosting root: the site files plus the deployment record.
func Materialize(rendered render.Rendered, deployment entity.Deployment) (Tree, error) {
	tree := site(rendered)
	meta, err := json.MarshalIndent(deployment, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("err marshalling deployment metadata, %v", err)
	}
	return append(tree, File{Path: MetadataFile, Data: meta}), nil
}

// ExportTree builds the downloadable tree: the site files plus the README and deployment guide.
func ExportTree(rendered render.Rendered, docs Docs) (Tree, error) {
	tree := site(rendered)

	readme, err := Readme(docs)
	if err != nil {
		return nil, err
	}
	guide, err := docsFS.ReadFile("docs/DEPLOYMENT.md")
	if err != nil {
		return nil, fmt.Errorf("err reading deployment guide, %v", err)
	}

	return append(tree,
		File{Path: ReadmeFile, Data: readme},
		File{Path: DeploymentFile, Data: guide},
	), nil
}

// Package returns the export archive as a deflated ZIP.
func Package(rendered render.Rendered, docs Docs) ([]byte, error) {
	tree, err := ExportTree(rendered, docs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range tree {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: docs.GeneratedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("err adding %s to archive, %v", f.Path, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("err writing %s to archive, %v", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("err closing archive, %v", err)
	}

	return buf.Bytes(), nil
}

func Readme(docs Docs) ([]byte, error) {
	data := readmeData{
		Name:        docs.Name,
		Summary:     docs.Description,
		Description: docs.Description,
		GeneratedAt: docs.GeneratedAt.Format("02/01/2006 à 15:04"),
	}
	if data.Name == "" {
		data.Name = render.DefaultTitle
	}
	if data.Summary == "" {
		data.Summary = render.GeneratorNotice
	}
	if data.Description == "" {
		data.Description = noDescription
	}

	var buf bytes.Buffer
	if err := readmeTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("err rendering readme, %v", err)
	}
	return buf.Bytes(), nil
}
