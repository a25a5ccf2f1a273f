package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"staticcms/app/internal/site"
)

// articleMatter is the frontmatter accepted on imported markdown files.
type articleMatter struct {
	Slug          string   `yaml:"slug"`
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description"`
	Author        string   `yaml:"author"`
	Date          any      `yaml:"date"`
	ReadTime      int      `yaml:"readTime"`
	FeaturedImage string   `yaml:"featuredImage"`
	Tags          []string `yaml:"tags"`
}

func newImportCommand(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "import DOC MARKDOWN",
		Short: "Append a markdown article as a detail entry",
		Long: `import parses MARKDOWN, reads its YAML frontmatter and appends the
article to DOC as a detail entry in the given category. The slug defaults to
the file name without extension.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, mdPath := args[0], args[1]

			doc, err := a.readDocument(docPath)
			if err != nil {
				return err
			}

			entry, err := importArticle(mdPath, category)
			if err != nil {
				return err
			}

			doc.Pages = append(doc.Pages, entry)
			if a.settings.Strict {
				if err := site.Validate(doc); err != nil {
					return eris.Wrapf(err, "importing %s", mdPath)
				}
			}

			if err := writeDocument(docPath, doc); err != nil {
				return err
			}

			a.logger.WithField("slug", entry.Slug).WithField("category", category).Info("article imported")
			fmt.Fprintf(cmd.OutOrStdout(), "imported /%s/%s\n", category, entry.Slug)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category the article is listed under")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func importArticle(path, category string) (site.PageEntry, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return site.PageEntry{}, eris.New("category is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return site.PageEntry{}, eris.Wrapf(err, "reading %s", path)
	}

	var matter articleMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &matter)
	if err != nil {
		return site.PageEntry{}, eris.Wrapf(err, "parsing frontmatter of %s", path)
	}

	slug := strings.TrimSpace(matter.Slug)
	if slug == "" {
		slug = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	title := strings.TrimSpace(matter.Title)
	if title == "" {
		return site.PageEntry{}, eris.Errorf("%s: frontmatter title is required", path)
	}

	entry := site.PageEntry{
		Slug:          slug,
		Title:         title,
		Template:      site.TemplateDetail,
		Category:      site.String(category),
		Description:   optional(matter.Description),
		Author:        optional(matter.Author),
		PublishDate:   optional(publishDate(matter.Date)),
		FeaturedImage: optional(matter.FeaturedImage),
		Tags:          matter.Tags,
	}
	if matter.ReadTime > 0 {
		entry.ReadTime = site.Int(matter.ReadTime)
	}
	if content := strings.TrimSpace(string(body)); content != "" {
		entry.Content = site.String(content)
	}
	return entry, nil
}

// publishDate accepts either a quoted string or a bare YAML timestamp.
func publishDate(value any) string {
	switch v := value.(type) {
	case time.Time:
		return v.Format("2006-01-02")
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return site.String(s)
}
