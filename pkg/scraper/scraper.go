package scraper

import (
	"stickscraper/internal/fetchpool"
	"stickscraper/pkg/config"
	"stickscraper/pkg/droidz"
	"stickscraper/pkg/logger"
	"stickscraper/pkg/store"
)

// Scraper orchestrates catalog discovery and detail scraping
type Scraper struct {
	client SiteClient
	store  *store.Store
	cfg    config.UpdateConfig
	logger logger.Logger
}

// New creates a new Scraper. The caller owns the client and store.
func New(client SiteClient, st *store.Store, cfg config.UpdateConfig, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scraper{
		client: client,
		store:  st,
		cfg:    cfg,
		logger: log,
	}
}

// IncrementalUpdate discovers new sticks via the homepage's latest panel
// and scrapes detail for everything still undetailed.
//
// IDs from the panel are inserted most recent first and insertion stops at
// the first already-known id. If the whole panel was new, more submissions
// may have appeared than the panel can show, so every category is
// re-traversed to pick up the rest.
func (s *Scraper) IncrementalUpdate(threads int) error {
	body, err := s.client.FetchHome()
	if err != nil {
		return err
	}
	latest, err := droidz.ParseLatest(body)
	if err != nil {
		return err
	}

	overflowed := false
	for _, id := range latest {
		status, err := s.store.InsertStub(id)
		if err != nil {
			return err
		}
		if !status.IsNew {
			overflowed = false
			break
		}
		overflowed = true
	}

	if overflowed {
		s.logger.Info("The latest panel didn't contain everything, checking the categories for new sticks")
		if err := s.discoverAllCategories(); err != nil {
			return err
		}
	} else {
		s.logger.Info("Latest panel fully covered by the database")
	}

	ids, err := s.store.IDsNeedingDetail()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		s.logger.Info("No new sticks for incremental update")
		return nil
	}

	s.logger.WithField("count", len(ids)).Info("Scraping detail for new sticks")
	return s.scrapeDetails(ids, threads)
}

// FullUpdate re-traverses every category and re-scrapes detail for every
// known stick, stalest first. Because detail order is stalest-first, an
// interrupted full update resumes sensibly on the next run.
func (s *Scraper) FullUpdate(threads int) error {
	if err := s.discoverAllCategories(); err != nil {
		return err
	}

	ids, err := s.store.IDsByRetrieved()
	if err != nil {
		return err
	}

	s.logger.WithField("count", len(ids)).Info("Re-scraping detail for all sticks")
	return s.scrapeDetails(ids, threads)
}

// discoverAllCategories walks every category listing to its fixed point,
// inserting stubs for every discovered id.
func (s *Scraper) discoverAllCategories() error {
	for _, category := range droidz.Categories {
		ids, err := s.crawlCategory(category)
		if err != nil {
			return err
		}
		if err := s.store.InsertStubs(ids); err != nil {
			return err
		}
		s.logger.WithFields(map[string]interface{}{
			"category": category,
			"ids":      len(ids),
		}).Info("Category traversed")
	}
	return nil
}

// crawlCategory pages through one category until a page contributes no id
// that earlier pages haven't already shown. The site publishes no page
// count, so this fixed point is the only termination signal; the page cap
// bounds the loop against a server that keeps inventing content.
func (s *Scraper) crawlCategory(category string) ([]string, error) {
	seen := make(map[string]bool)
	var discovered []string

	for page := 1; page <= s.cfg.MaxCategoryPages; page++ {
		body, err := s.client.FetchCategoryPage(category, page)
		if err != nil {
			return nil, err
		}
		ids, err := droidz.ParseListing(body)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				discovered = append(discovered, id)
				added++
			}
		}
		if added == 0 {
			return discovered, nil
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"category": category,
		"max":      s.cfg.MaxCategoryPages,
	}).Warn("Category page cap reached before fixed point")
	return discovered, nil
}

// scrapeDetails fetches detail for every id and upserts each result. With
// threads == 1 everything is sequential and the first error aborts the
// batch. With more threads, fetching is spread over a worker pool whose
// results are drained here, so all store writes still happen on one
// goroutine; the first worker error is returned after in-flight results
// have been persisted.
func (s *Scraper) scrapeDetails(ids []string, threads int) error {
	if threads <= 1 {
		for _, id := range ids {
			stick, err := s.client.ScrapeDetail(id)
			if err != nil {
				return err
			}
			if err := s.store.UpsertStick(stick); err != nil {
				return err
			}
		}
		return nil
	}

	pool := fetchpool.New(threads, s.client, s.logger)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, id := range ids {
			if err := pool.Submit(fetchpool.Job{ID: id}); err != nil {
				return
			}
		}
	}()

	var firstErr error
	for result := range pool.Results() {
		if result.Err != nil {
			if firstErr == nil {
				firstErr = result.Err
			}
			continue
		}
		if err := s.store.UpsertStick(result.Stick); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
