// Package catalog mediates all reads from the remote product API and
// caches the most recent response per concern. Reviews and the
// recently-viewed list are local-only side stores that never touch the
// remote API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-service/internal/kvstore"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Status of an asynchronous concern.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

const (
	maxRecentlyViewed          = 10
	defaultRecommendationLimit = 4
)

// ErrInvalidRating is returned for review ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type requestState struct {
	status Status
	err    string
}

// Service is the catalog slice. Each remote concern carries a sequence
// number bumped when a request is issued; a response mutates cached
// state only if its sequence is still the newest, so a stale response
// can never overwrite a fresher one.
type Service struct {
	mu     sync.Mutex
	client *Client
	kv     *kvstore.Store
	logger *zap.Logger

	itemsPerPage int

	productsSeq   uint64
	productsState requestState
	products      []models.Product
	total         int

	searchQuery      string
	selectedCategory string
	sortOption       string
	currentPage      int

	categoriesSeq   uint64
	categoriesState requestState
	categories      []string

	productSeq   uint64
	productState requestState
	current      *models.Product

	recommendationsSeq uint64
	recommendations    map[int64][]models.Product

	reviews map[int64]models.ProductReviews

	recentlyViewed []models.Product
}

// NewService builds the catalog slice and restores the recently-viewed
// list from the persistent store.
func NewService(ctx context.Context, client *Client, kv *kvstore.Store, itemsPerPage int) (*Service, error) {
	if itemsPerPage <= 0 {
		itemsPerPage = 30
	}

	s := &Service{
		client:          client,
		kv:              kv,
		logger:          util.GetLogger(),
		itemsPerPage:    itemsPerPage,
		sortOption:      models.SortDefault,
		currentPage:     1,
		productsState:   requestState{status: StatusIdle},
		categoriesState: requestState{status: StatusIdle},
		productState:    requestState{status: StatusIdle},
		recommendations: make(map[int64][]models.Product),
		reviews:         make(map[int64]models.ProductReviews),
	}

	if _, err := kv.ReadJSON(ctx, kvstore.KeyRecentlyViewed, &s.recentlyViewed); err != nil {
		return nil, err
	}

	return s, nil
}

// ProductQuery selects a page of the catalog. A non-empty SearchQuery
// wins over Category.
type ProductQuery struct {
	Skip        int
	Limit       int
	Category    string
	SearchQuery string
}

// FetchProducts retrieves one page and, if the response is still the
// newest for this concern, caches it. The fetched page is returned to
// the caller either way.
func (s *Service) FetchProducts(ctx context.Context, query ProductQuery) ([]models.Product, int, error) {
	ctx, span := util.StartSpan(ctx, "catalog.FetchProducts")
	defer span.End()

	if query.Limit <= 0 {
		query.Limit = s.itemsPerPage
	}

	s.mu.Lock()
	s.productsSeq++
	seq := s.productsSeq
	s.productsState = requestState{status: StatusPending}
	s.mu.Unlock()

	page, err := s.client.FetchPage(ctx, query.Skip, query.Limit, query.Category, query.SearchQuery)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.productsSeq {
		// a newer request superseded this one; leave cached state alone
		if err != nil {
			return nil, 0, err
		}
		return page.Products, page.Total, nil
	}

	if err != nil {
		s.productsState = requestState{status: StatusRejected, err: err.Error()}
		s.products = nil
		s.total = 0
		return nil, 0, err
	}

	s.productsState = requestState{status: StatusFulfilled}
	s.products = page.Products
	s.total = page.Total
	s.selectedCategory = query.Category
	s.searchQuery = query.SearchQuery

	return page.Products, page.Total, nil
}

// FetchCategories retrieves and normalizes the category list. A failed
// call or an unrecognized shape falls back to the static default list,
// deterministically.
func (s *Service) FetchCategories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	s.categoriesSeq++
	seq := s.categoriesSeq
	s.categoriesState = requestState{status: StatusPending}
	s.mu.Unlock()

	raw, err := s.client.FetchCategories(ctx)

	var cats []string
	if err != nil {
		s.logger.Warn("Category fetch failed, using static list", zap.Error(err))
	} else {
		cats = normalizeCategories(raw)
	}
	if len(cats) == 0 {
		cats = DefaultCategories()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq == s.categoriesSeq {
		s.categoriesState = requestState{status: StatusFulfilled}
		s.categories = cats
	}

	return cats, nil
}

// FetchProduct retrieves one product and caches it as the current
// detail. ErrProductNotFound passes through untouched so callers can
// distinguish it from transport failures.
func (s *Service) FetchProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "catalog.FetchProduct")
	defer span.End()

	s.mu.Lock()
	s.productSeq++
	seq := s.productSeq
	s.productState = requestState{status: StatusPending}
	s.mu.Unlock()

	product, err := s.client.FetchProduct(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.productSeq {
		return product, err
	}

	if err != nil {
		s.productState = requestState{status: StatusRejected, err: err.Error()}
		s.current = nil
		return nil, err
	}

	s.productState = requestState{status: StatusFulfilled}
	s.current = product
	return product, nil
}

// FetchRecommendations fetches products sharing the target's category,
// excluding the target itself, capped at limit.
func (s *Service) FetchRecommendations(ctx context.Context, productID int64, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}

	s.mu.Lock()
	s.recommendationsSeq++
	seq := s.recommendationsSeq
	s.mu.Unlock()

	product, err := s.client.FetchProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	// fetch one extra so excluding the target still fills the cap
	page, err := s.client.FetchPage(ctx, 0, limit+1, product.Category, "")
	if err != nil {
		return nil, err
	}

	recs := make([]models.Product, 0, limit)
	for _, p := range page.Products {
		if p.ID == productID {
			continue
		}
		recs = append(recs, p)
		if len(recs) == limit {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.recommendationsSeq {
		s.recommendations[productID] = recs
	}

	return recs, nil
}

// FetchReviews loads the local review list for a product. A product with
// no reviews yields an empty summary, not an error.
func (s *Service) FetchReviews(ctx context.Context, productID int64) (models.ProductReviews, error) {
	var stored models.ProductReviews
	if _, err := s.kv.ReadJSON(ctx, kvstore.ReviewsKey(productID), &stored); err != nil {
		return models.ProductReviews{}, err
	}
	if stored.Reviews == nil {
		stored.Reviews = []models.Review{}
	}

	s.mu.Lock()
	s.reviews[productID] = stored
	s.mu.Unlock()

	return stored, nil
}

// SubmitReview appends a review, recomputes the mean rating over all
// stored reviews, and persists the result.
func (s *Service) SubmitReview(ctx context.Context, productID int64, review models.Review) (models.ProductReviews, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return models.ProductReviews{}, ErrInvalidRating
	}
	if review.Date.IsZero() {
		review.Date = time.Now()
	}

	stored, err := s.FetchReviews(ctx, productID)
	if err != nil {
		return models.ProductReviews{}, err
	}

	stored.Reviews = append(stored.Reviews, review)
	stored.Total = len(stored.Reviews)

	sum := 0.0
	for _, r := range stored.Reviews {
		sum += r.Rating
	}
	stored.Rating = sum / float64(stored.Total)

	if err := s.kv.Write(ctx, kvstore.ReviewsKey(productID), stored); err != nil {
		return models.ProductReviews{}, fmt.Errorf("failed to persist reviews: %w", err)
	}

	s.mu.Lock()
	s.reviews[productID] = stored
	s.mu.Unlock()

	util.ReviewsSubmittedTotal.Inc()
	s.logger.Info("Review submitted",
		zap.Int64("product_id", productID),
		zap.Float64("rating", review.Rating))

	return stored, nil
}

// AddRecentlyViewed records a product view: most-recent-first, unique by
// id, capped. Viewing a listed product moves it to the front.
func (s *Service) AddRecentlyViewed(ctx context.Context, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Product, 0, maxRecentlyViewed)
	out = append(out, product)
	for _, p := range s.recentlyViewed {
		if p.ID == product.ID {
			continue
		}
		out = append(out, p)
		if len(out) == maxRecentlyViewed {
			break
		}
	}
	s.recentlyViewed = out

	return s.kv.Write(ctx, kvstore.KeyRecentlyViewed, s.recentlyViewed)
}

// LoadRecentlyViewed reloads the list from the persistent store.
func (s *Service) LoadRecentlyViewed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recentlyViewed = nil
	_, err := s.kv.ReadJSON(ctx, kvstore.KeyRecentlyViewed, &s.recentlyViewed)
	return err
}

// RecentlyViewed returns a copy of the list, most recent first.
func (s *Service) RecentlyViewed() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.recentlyViewed))
	copy(out, s.recentlyViewed)
	return out
}

// Products returns a copy of the cached product page.
func (s *Service) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// SortedProducts applies the current sort option at read time; the
// cached order is never mutated.
func (s *Service) SortedProducts() []models.Product {
	s.mu.Lock()
	products := make([]models.Product, len(s.products))
	copy(products, s.products)
	option := s.sortOption
	s.mu.Unlock()

	return SortProducts(products, option)
}

// TotalPages derives the page count from the last response total.
func (s *Service) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.total + s.itemsPerPage - 1) / s.itemsPerPage
}

// Total returns the last response's total result count.
func (s *Service) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Categories returns the cached category list.
func (s *Service) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// CurrentProduct returns the cached product detail, or nil.
func (s *Service) CurrentProduct() *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

// ProductsStatus reports the list concern's request state.
func (s *Service) ProductsStatus() (Status, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productsState.status, s.productsState.err
}

// SetSearchQuery updates the search filter and resets to the first page.
func (s *Service) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
	s.currentPage = 1
}

// SetCategory updates the category filter and resets to the first page.
func (s *Service) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedCategory = category
	s.currentPage = 1
}

// SetSortOption updates the read-time sort projection.
func (s *Service) SetSortOption(option string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortOption = option
}

// SetPage updates the current page.
func (s *Service) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	s.currentPage = page
}

// ClearFilters resets search, category, sort and page.
func (s *Service) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = ""
	s.selectedCategory = ""
	s.sortOption = models.SortDefault
	s.currentPage = 1
}

// ClearProductDetail drops the cached detail and its error state.
func (s *Service) ClearProductDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.productState = requestState{status: StatusIdle}
}
