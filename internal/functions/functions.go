// Package functions holds the tools bundled with toolchat and the start-up loader that
// registers them.
package functions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m2tx/toolchat/internal/agent"
	"github.com/m2tx/toolchat/internal/repository"
)

// Factory builds one tool. A factory error means the tool is left out.
type Factory struct {
	Name  string
	Build func(ctx context.Context) (*agent.FunctionDeclaration, error)
}

// Static wraps a declaration that cannot fail to build.
func Static(fd *agent.FunctionDeclaration) Factory {
	return Factory{
		Name:  fd.Name,
		Build: func(context.Context) (*agent.FunctionDeclaration, error) { return fd, nil },
	}
}

// DocsSearch indexes docsDir with e and yields the search_docs tool.
func DocsSearch(e *agent.Embedder, docsDir string) Factory {
	return Factory{
		Name: "search_docs",
		Build: func(ctx context.Context) (*agent.FunctionDeclaration, error) {
			if err := e.Index(ctx, docsDir); err != nil {
				return nil, err
			}
			return CreateDocsSearchFunctionDeclaration(e), nil
		},
	}
}

// Defaults lists every bundled tool.
func Defaults(dir repository.DirectoryRepository, e *agent.Embedder, docsDir string) []Factory {
	return []Factory{
		Static(CreateWeatherFunctionDeclaration()),
		Static(CreateCompanyFunctionDeclaration(dir)),
		Static(CreateCollaboratorsFunctionDeclaration(dir)),
		Static(CreateTimeFunctionDeclaration(time.Now)),
		DocsSearch(e, docsDir),
	}
}

// Load builds every factory and registers the results. Failed factories and duplicate
// names are logged and skipped; Load itself never fails.
func Load(ctx context.Context, logger *slog.Logger, factories ...Factory) *agent.Registry {
	if logger == nil {
		logger = slog.Default()
	}

	var decls []*agent.FunctionDeclaration
	seen := make(map[string]bool, len(factories))
	for _, f := range factories {
		fd, err := build(ctx, f)
		if err != nil {
			logger.Warn("functions: skipping tool", "tool", f.Name, "err", err)
			continue
		}
		if _, err := agent.NewRegistry(fd); err != nil {
			logger.Warn("functions: skipping invalid tool", "tool", f.Name, "err", err)
			continue
		}
		if seen[fd.Name] {
			logger.Warn("functions: skipping duplicate tool", "tool", fd.Name)
			continue
		}
		seen[fd.Name] = true
		decls = append(decls, fd)
	}

	// every declaration was validated above
	registry, _ := agent.NewRegistry(decls...)
	logger.Info("functions: tools loaded", "count", registry.Len(), "tools", registry.Names())
	return registry
}

func build(ctx context.Context, f Factory) (fd *agent.FunctionDeclaration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory panicked: %v", r)
		}
	}()

	if f.Build == nil {
		return nil, fmt.Errorf("no build function")
	}
	return f.Build(ctx)
}
