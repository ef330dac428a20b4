// Package wikiindex is a random-access index over the wikipedia
// multistream xml dumps.
//
// The dumps are available from the wikimedia group here:
//    http://dumps.wikimedia.org/
//
// A dump snapshot split into several index/data file pairs is first
// catalogued (BuildCatalog), then a Builder makes one pass per table
// over every index file to produce the title hash, id hash, main list
// and block list.  A Store opened over those tables resolves a title
// or page id to an ArticleNumber and fetches the article's xml by
// decompressing only the one bz2 stream (block) that holds it.
//
// The subset package layers link graphs, PageRank and edit history
// analytics on top of a Store.  See the programs in tools for an idea
// of how these pieces get driven.
package wikiindex
