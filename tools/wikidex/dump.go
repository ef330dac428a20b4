package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dustin/go-wikiindex"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Catalog the dump files",
		Long:  "Find the index and data file pairs of the dump and record them in " + wikiindex.CatalogFilename,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			return emitJSON(c.Files)
		},
	}
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the main index",
		Long:  "Build the title and id hash tables and the article and block lists of the dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			b := wikiindex.NewBuilder(c,
				wikiindex.WithIndexDir(cfg.Dump.IndexDir),
				wikiindex.WithBucketCount(cfg.Dump.Buckets),
				wikiindex.WithBuilderLogger(log))
			start := time.Now()
			if err := b.Build(cmd.Context()); err != nil {
				return err
			}
			log.Info().Str("dir", b.Dir()).Dur("took", time.Since(start)).Msg("Main index ready")
			return nil
		},
	}
}

// resolve finds an article by title, or by wiki id with --id.
func resolve(s *wikiindex.Store, arg string, byID bool) (wikiindex.ArticleNumber, error) {
	if !byID {
		return s.LookupByTitle(arg)
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("wiki id %q: %w", arg, err)
	}
	return s.LookupByID(id)
}

func newLookupCmd() *cobra.Command {
	var byID bool
	cmd := &cobra.Command{
		Use:   "lookup TITLE...",
		Short: "Find articles",
		Long:  "Print the ArticleNumber, wiki id, title and block location of each article",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *wikiindex.Store) error {
				for _, arg := range args {
					n, err := resolve(s, arg, byID)
					if errors.Is(err, wikiindex.ErrNotFound) {
						fmt.Printf("%v\tnot found\n", arg)
						continue
					}
					if err != nil {
						return err
					}
					rec, err := s.RecordAt(n)
					if err != nil {
						return err
					}
					title, err := s.TitleAt(rec.TitleOffset)
					if err != nil {
						return err
					}
					loc, err := s.BlockLocation(rec.BlockIndex)
					if err != nil {
						return err
					}
					fmt.Printf("%v\t%v\t%q\tfile %v [%v, %v)\n", n, rec.WikiID, title,
						loc.CatalogIndex, loc.Start, loc.End)
				}
				log.Debug().Msgf("%s articles indexed", humanize.Comma(int64(s.Len())))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "Look up by wiki id instead of title")
	return cmd
}

func article(s *wikiindex.Store, arg string, byID bool) (*wikiindex.Article, error) {
	n, err := resolve(s, arg, byID)
	if err != nil {
		return nil, err
	}
	return s.ArticleByNumber(n)
}

func newTextCmd() *cobra.Command {
	var byID, wikitext bool
	cmd := &cobra.Command{
		Use:   "text TITLE",
		Short: "Print an article",
		Long:  "Print the <page> xml of an article, or just its wikitext with --wikitext",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *wikiindex.Store) error {
				a, err := article(s, args[0], byID)
				if err != nil {
					return err
				}
				if !wikitext {
					text, err := a.Text()
					if err != nil {
						return err
					}
					fmt.Println(text)
					return nil
				}
				p, err := a.Page()
				if err != nil {
					return err
				}
				if p.IsRedirect() {
					log.Info().Str("target", p.Redirect.Title).Msg("Article is a redirect")
				}
				fmt.Println(p.Revision.Text)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "Look up by wiki id instead of title")
	cmd.Flags().BoolVar(&wikitext, "wikitext", false, "Print only the wikitext")
	return cmd
}

func newLinksCmd() *cobra.Command {
	var byID, resolved bool
	cmd := &cobra.Command{
		Use:   "links TITLE",
		Short: "Print the links of an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *wikiindex.Store) error {
				a, err := article(s, args[0], byID)
				if err != nil {
					return err
				}
				if !resolved {
					links, err := a.Links()
					if err != nil {
						return err
					}
					return emitJSON(links)
				}
				nums, err := a.LinkNumbers()
				if err != nil {
					return err
				}
				for _, n := range nums {
					title, err := s.Title(n)
					if err != nil {
						return err
					}
					fmt.Printf("%v\t%v\n", n, title)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "Look up by wiki id instead of title")
	cmd.Flags().BoolVar(&resolved, "resolve", false, "Print only links to indexed articles, with their numbers")
	return cmd
}
