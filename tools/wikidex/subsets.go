package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dustin/go-wikiindex"
	"github.com/dustin/go-wikiindex/subset"
)

func newSubsetCmd() *cobra.Command {
	subsetCmd := &cobra.Command{
		Use:   "subset",
		Short: "Build and query article subsets",
		Long:  "Build and query named article subsets.  Child subsets are named by path, e.g. math/Algebra.",
	}
	subsetCmd.AddCommand(
		newSubsetCreateCmd(),
		newSubsetFromListsCmd(),
		newSubsetFromCategoryCmd(),
		newSubsetStepCmd("links", "Build the link catalog", func(cmd *cobra.Command, s *subset.Subset) error {
			return s.BuildLinkCatalog()
		}),
		newSubsetRankCmd(),
		newSubsetStepCmd("views", "Fetch monthly page views", func(cmd *cobra.Command, s *subset.Subset) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return s.BuildViewCatalog(cmd.Context(), c)
		}),
		newSubsetStepCmd("edits", "Fetch edit histories", func(cmd *cobra.Command, s *subset.Subset) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return s.BuildEditCatalog(cmd.Context(), c)
		}),
		newSubsetStepCmd("editor-edits", "Index the edits of every editor", func(cmd *cobra.Command, s *subset.Subset) error {
			return s.BuildEditorEditIndex()
		}),
		newSubsetStepCmd("metrics", "Derive article and editor metrics", func(cmd *cobra.Command, s *subset.Subset) error {
			if err := s.BuildArticleMetrics(); err != nil {
				return err
			}
			return s.BuildEditorMetrics()
		}),
		newSubsetStepCmd("graph", "Write the binary link graph", func(cmd *cobra.Command, s *subset.Subset) error {
			return s.WriteGraphData()
		}),
		newSubsetStepCmd("documents", "Print the per-article documents", func(cmd *cobra.Command, s *subset.Subset) error {
			docs, err := s.Documents()
			if err != nil {
				return err
			}
			return emitJSON(docs)
		}),
		newSubsetChildCmd(),
		newSubsetAutoChildrenCmd(),
		newSubsetTopCmd(),
	)
	return subsetCmd
}

// newSubsetStepCmd makes a command running one build step on a subset.
func newSubsetStepCmd(use, short string, fn func(*cobra.Command, *subset.Subset) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubset(args[0], func(_ *wikiindex.Store, s *subset.Subset) error {
				return fn(cmd, s)
			})
		},
	}
}

func lookupTitles(store *wikiindex.Store, titles []string) ([]wikiindex.ArticleNumber, error) {
	var rv []wikiindex.ArticleNumber
	for _, t := range titles {
		n, err := store.LookupByTitle(t)
		if errors.Is(err, wikiindex.ErrNotFound) {
			log.Warn().Str("title", t).Msg("No such article")
			continue
		}
		if err != nil {
			return nil, err
		}
		rv = append(rv, n)
	}
	return rv, nil
}

func newSubsetCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME TITLE...",
		Short: "Create a subset from article titles",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubset(args[0], func(store *wikiindex.Store, s *subset.Subset) error {
				nums, err := lookupTitles(store, args[1:])
				if err != nil {
					return err
				}
				if err := s.Create(nums, nil); err != nil {
					return err
				}
				fmt.Printf("%v has %v articles\n", s.Name(), s.Len())
				return nil
			})
		},
	}
}

func newSubsetFromListsCmd() *cobra.Command {
	var minSize int
	cmd := &cobra.Command{
		Use:   "from-lists NAME LIST_TITLE...",
		Short: "Create a subset from the links of list articles",
		Long: "Create a subset from the articles linked by list articles, then its link catalog and " +
			"child subsets.  A {} in a title is replaced by each alphabetical group, e.g. " +
			"\"Index of mathematics articles ({})\".",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-child-size") {
				minSize = cfg.Subsets.MinChildSize
			}
			return withSubset(args[0], func(_ *wikiindex.Store, s *subset.Subset) error {
				return s.CreateFromListArticles(args[1:], minSize)
			})
		},
	}
	cmd.Flags().IntVar(&minSize, "min-child-size", subset.DefaultMinChildSize, "Smallest list made into a child subset")
	return cmd
}

func newSubsetFromCategoryCmd() *cobra.Command {
	var minSize int
	cmd := &cobra.Command{
		Use:   "from-category NAME CATEGORY",
		Short: "Create a subset from a Wikipedia category",
		Long:  "Create a subset from the pages of a category and its direct subcategories, e.g. \"Fields of mathematics\"",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-child-size") {
				minSize = cfg.Subsets.MinChildSize
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			return withSubset(args[0], func(_ *wikiindex.Store, s *subset.Subset) error {
				return s.CreateFromCategory(cmd.Context(), c, c.CategoryURL(args[1]), minSize)
			})
		},
	}
	cmd.Flags().IntVar(&minSize, "min-child-size", subset.DefaultMinChildSize, "Smallest subcategory made into a child subset")
	return cmd
}

func newSubsetRankCmd() *cobra.Command {
	var iters int
	cmd := &cobra.Command{
		Use:   "rank NAME",
		Short: "Compute PageRank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubset(args[0], func(_ *wikiindex.Store, s *subset.Subset) error {
				_, err := s.ComputePageRank(iters)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&iters, "iterations", subset.DefaultIterations, "Power iteration steps")
	return cmd
}

func newSubsetChildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "child PARENT NAME TITLE...",
		Short: "Create a child subset from article titles",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubset(args[0], func(store *wikiindex.Store, s *subset.Subset) error {
				nums, err := lookupTitles(store, args[2:])
				if err != nil {
					return err
				}
				c, err := s.CreateChild(args[1], nums)
				if err != nil {
					return err
				}
				fmt.Printf("%v/%v has %v articles\n", s.Name(), c.Name(), c.Len())
				return nil
			})
		},
	}
}

func newSubsetAutoChildrenCmd() *cobra.Command {
	var minSize int
	cmd := &cobra.Command{
		Use:   "auto-children NAME",
		Short: "Create child subsets from list articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-child-size") {
				minSize = cfg.Subsets.MinChildSize
			}
			return withSubset(args[0], func(_ *wikiindex.Store, s *subset.Subset) error {
				names, err := s.AutoDeriveChildSubsets(minSize)
				if err != nil {
					return err
				}
				return emitJSON(names)
			})
		},
	}
	cmd.Flags().IntVar(&minSize, "min-child-size", subset.DefaultMinChildSize, "Smallest list made into a child subset")
	return cmd
}

func newSubsetTopCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "top NAME",
		Short: "Print the highest ranked articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubset(args[0], func(_ *wikiindex.Store, s *subset.Subset) error {
				top, err := s.HighestRanked(n)
				if err != nil {
					return err
				}
				rank, err := s.PageRank()
				if err != nil {
					return err
				}
				for i, l := range top {
					fmt.Printf("%3d. %-50s %.6f\n", i+1, s.Member(l).Title, rank[l])
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 50, "How many to print")
	return cmd
}
