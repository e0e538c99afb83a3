// Package seed loads packages, help articles and an initial administrator
// from a YAML definition. Applying the same file twice creates nothing new.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edvin/hostpanel/internal/core"
	"github.com/edvin/hostpanel/internal/model"
)

// AdminPasswordEnv supplies the admin password when the file leaves it out.
const AdminPasswordEnv = "PANEL_ADMIN_PASSWORD"

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &cfg, nil
}

// Result counts what Apply created and skipped.
type Result struct {
	Created int
	Skipped int
}

// Apply creates everything in cfg that does not exist yet. Packages match
// by name, articles by title and the admin by email. Progress is written to
// out.
func Apply(ctx context.Context, svc *core.Services, cfg *Config, out io.Writer) (Result, error) {
	var res Result

	pkgs, err := svc.Package.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list packages: %w", err)
	}
	havePkg := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		havePkg[p.Name] = true
	}
	for _, def := range cfg.Packages {
		if havePkg[def.Name] {
			fmt.Fprintf(out, "Package %q exists, skipping\n", def.Name)
			res.Skipped++
			continue
		}
		p, err := svc.Package.Create(ctx, core.System, core.PackageInput{
			Name:          def.Name,
			DiskSpace:     def.DiskSpace,
			Bandwidth:     def.Bandwidth,
			EmailAccounts: def.EmailAccounts,
			Databases:     def.Databases,
			Domains:       def.Domains,
		})
		if err != nil {
			return res, fmt.Errorf("create package %q: %w", def.Name, err)
		}
		havePkg[def.Name] = true
		fmt.Fprintf(out, "Package %q created (id %d, disk %s, domains %s)\n", p.Name, p.ID,
			model.FormatLimit(p.DiskSpace, "GB"), model.FormatLimit(p.Domains, ""))
		res.Created++
	}

	articles, err := svc.KnowledgeBase.List(ctx, "")
	if err != nil {
		return res, fmt.Errorf("list articles: %w", err)
	}
	haveArticle := make(map[string]bool, len(articles))
	for _, a := range articles {
		haveArticle[a.Title] = true
	}
	for _, def := range cfg.Articles {
		if haveArticle[def.Title] {
			res.Skipped++
			continue
		}
		if _, err := svc.KnowledgeBase.Create(ctx, core.System, core.ArticleInput{
			Title:    def.Title,
			Content:  def.Content,
			Category: def.Category,
			Tags:     def.Tags,
		}); err != nil {
			return res, fmt.Errorf("create article %q: %w", def.Title, err)
		}
		haveArticle[def.Title] = true
		fmt.Fprintf(out, "Article %q created\n", def.Title)
		res.Created++
	}

	if cfg.Admin != nil {
		created, err := CreateAdmin(ctx, svc, *cfg.Admin)
		if err != nil {
			return res, err
		}
		if created {
			fmt.Fprintf(out, "Admin %q created\n", cfg.Admin.Email)
			res.Created++
		} else {
			fmt.Fprintf(out, "Admin %q exists, skipping\n", cfg.Admin.Email)
			res.Skipped++
		}
	}
	return res, nil
}

// CreateAdmin creates an administrator account. It reports false without
// error when the username or email is already registered.
func CreateAdmin(ctx context.Context, svc *core.Services, def AdminDef) (bool, error) {
	if def.Password == "" {
		def.Password = os.Getenv(AdminPasswordEnv)
	}
	if def.Password == "" {
		return false, fmt.Errorf("admin password is required (set %s)", AdminPasswordEnv)
	}
	_, err := svc.User.Create(ctx, core.System, core.CreateUserInput{
		Username: def.Username,
		Email:    def.Email,
		Password: def.Password,
		Role:     model.RoleAdmin,
	})
	var ce *core.Error
	if errors.As(err, &ce) && ce.Kind == core.KindConflict {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create admin %q: %w", def.Email, err)
	}
	return true, nil
}
