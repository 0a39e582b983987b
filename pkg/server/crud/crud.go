package crud

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"crudkit/pkg/audit"
	"crudkit/pkg/component"
	"crudkit/pkg/model"
	"crudkit/pkg/schema"
	"crudkit/pkg/server/middleware"
)

// Op names one of the CRUD operations a resource exposes.
type Op string

const (
	OpCreate Op = "create"
	OpList   Op = "list"
	OpRead   Op = "read"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// maxBodyBytes caps request payload size for create and update.
const maxBodyBytes = 1 << 20

// Resource mounts the CRUD endpoints for a component under a path prefix:
//
//	POST   {prefix}          create, 201 on success
//	GET    {prefix}          list with pagination metadata
//	GET    {prefix}/{id}     read single
//	PUT    {prefix}/{id}     update
//	DELETE {prefix}/{id}     delete, returns the deleted item
//
// When Guard is set, every operation not listed in Public requires a valid
// token. A nil Guard leaves all routes open.
type Resource[T any] struct {
	Component *component.Component[T]
	Prefix    string

	Guard  mux.MiddlewareFunc
	Public map[Op]bool

	// MaxLimit caps the limit query parameter on list requests; 0 leaves
	// it uncapped.
	MaxLimit int

	// UseHTTPS forces the https scheme on pagination URLs, for deployments
	// behind TLS-terminating proxies.
	UseHTTPS bool
}

// Register mounts the resource's routes on a router.
func (res *Resource[T]) Register(router *mux.Router) {
	r := router.PathPrefix(res.Prefix).Subrouter()

	r.Handle("", res.guarded(OpCreate, http.HandlerFunc(res.handleCreate))).Methods("POST")
	r.Handle("/", res.guarded(OpCreate, http.HandlerFunc(res.handleCreate))).Methods("POST")

	r.Handle("", res.guarded(OpList, http.HandlerFunc(res.handleList))).Methods("GET")
	r.Handle("/", res.guarded(OpList, http.HandlerFunc(res.handleList))).Methods("GET")

	r.Handle("/{id:[0-9]+}", res.guarded(OpRead, http.HandlerFunc(res.handleRead))).Methods("GET")
	r.Handle("/{id:[0-9]+}", res.guarded(OpUpdate, http.HandlerFunc(res.handleUpdate))).Methods("PUT")
	r.Handle("/{id:[0-9]+}", res.guarded(OpDelete, http.HandlerFunc(res.handleDelete))).Methods("DELETE")
}

func (res *Resource[T]) guarded(op Op, h http.Handler) http.Handler {
	if res.Guard == nil || res.Public[op] {
		return h
	}
	return res.Guard(h)
}

func (res *Resource[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := res.Component.CreateItem(r.Context(), data)
	res.audit(r, OpCreate, "", err)
	if err != nil {
		res.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

func (res *Resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if res.MaxLimit > 0 && limit > res.MaxLimit {
		limit = res.MaxLimit
	}

	offset := 1
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o > 0 {
			offset = o
		}
	}

	page, err := res.Component.GetPage(r.Context(), component.ListParams{
		Limit:    limit,
		Offset:   offset,
		Filters:  query,
		Next:     res.pageURL(r, offset+1, limit),
		Previous: res.pageURL(r, offset-1, limit),
	})
	res.audit(r, OpList, "", err)
	if err != nil {
		res.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (res *Resource[T]) handleRead(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := res.Component.GetItem(r.Context(), id)
	res.audit(r, OpRead, strconv.FormatUint(uint64(id), 10), err)
	if err != nil {
		res.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (res *Resource[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	data, err := readBody(w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := res.Component.UpdateItem(r.Context(), id, data)
	res.audit(r, OpUpdate, strconv.FormatUint(uint64(id), 10), err)
	if err != nil {
		res.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (res *Resource[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := res.Component.DeleteItem(r.Context(), id)
	res.audit(r, OpDelete, strconv.FormatUint(uint64(id), 10), err)
	if err != nil {
		res.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// pageURL rebuilds the request URL with an adjusted offset for pagination
// metadata.
func (res *Resource[T]) pageURL(r *http.Request, offset, limit int) string {
	u := *r.URL
	q := u.Query()
	q.Set("offset", strconv.Itoa(offset))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()
	u.Host = r.Host
	u.Scheme = "http"
	if res.UseHTTPS || r.TLS != nil {
		u.Scheme = "https"
	}
	return u.String()
}

// audit records the outcome of an operation. The subject is whatever the
// guard middleware stored on the context, if anything.
func (res *Resource[T]) audit(r *http.Request, op Op, id string, err error) {
	subject, _ := middleware.Subject(r.Context())
	event := audit.ResourceEvent{
		Subject:   subject,
		ClientIP:  r.RemoteAddr,
		Resource:  res.Prefix,
		Operation: string(op),
		ItemID:    id,
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	audit.Log(event)
}

func (res *Resource[T]) writeError(w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"error": verr.Fields})
	case errors.Is(err, model.ErrUnknownField):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondWithError(w, http.StatusNotFound, "record not found")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func itemID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	return data, nil
}
