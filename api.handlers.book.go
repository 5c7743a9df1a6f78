package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		StatusResponse{
			RequestID: requestID,
			Status:    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			Message:   "Hello. Books catalog api is available. Enjoy :)",
		},
	); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send status response", zap.Error(err))
	}
}

// NotFound answers requests made on unknown routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		if requestID == "" {
			requestID = api.idsHandler.Generate(RequestIDPrefix)
		}
		err := writeJSON(w, http.StatusNotFound, map[string]string{
			"requestid": requestID,
			"message":   "route does not exist",
			"path":      r.Method + " " + r.URL.Path,
		})
		if err != nil {
			api.logger.Error("failed to send not found response", zap.String("request.id", requestID), zap.Error(err))
		}
	})
}

// bookErrorStatus maps catalog failures to the http status sent back.
func bookErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, ErrMissingCaller):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBookNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// sendBookError logs a failed catalog call and sends the matching error response.
// The error text is only exposed to the client for caller mistakes.
func (api *APIHandler) sendBookError(w http.ResponseWriter, r *http.Request, message string, err error, fields ...zap.Field) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	logger.Error(message, append(fields, zap.Error(err))...)

	status := bookErrorStatus(err)
	var data interface{} = EmptyData
	if status != http.StatusInternalServerError {
		data = err.Error()
	}
	errResp := NewAPIError(requestID, status, message, data)
	if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
		logger.Error("failed to send error response", zap.Error(err))
	}
}

// CreateBook appends a new book to the catalog on behalf of the caller.
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in BookInput
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	err := DecodeAppendBookRequestBody(r, &in)
	if err != nil {
		logger.Error("failed to decode book", zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the book", "invalid request body")
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}

	caller := GetValueFromContext(r.Context(), CallerContextKey)
	book, err := api.bookService.Add(r.Context(), caller, in)
	if err != nil {
		api.sendBookError(w, r, "failed to create the book", err, zap.String("request.caller", caller))
		return
	}

	logger.Info("success to create book", zap.Uint64("book.id", book.ID), zap.String("book.owner", book.Owner))
	resp := GenericResponse(requestID, http.StatusCreated, "Book created successfully.", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

//nolint:bodyclose
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	// the catalog only grows so its listing may need more time than the default write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(api.config.Server.LongRequestWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Error("http: failed to update the write deadline", zap.Error(err))
	}

	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.sendBookError(w, r, "failed to get all books", err)
		return
	}
	logger.Info("success to get all books", zap.Int("books.total", len(books)))
	total := len(books)
	resp := GenericResponse(requestID, http.StatusOK, "All books fetched successfully.", &total, books)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	rawID := ps.ByName("id")
	id, err := ParseBookID(rawID)
	if errors.Is(err, ErrBookNotFound) {
		api.sendBookError(w, r, "failed to get the book", err, zap.String("book.id", rawID))
		return
	}
	if err != nil {
		api.sendBookError(w, r, "book id provided is not valid", err, zap.String("book.id", rawID))
		return
	}

	book, err := api.bookService.GetOne(r.Context(), id)
	if err != nil {
		api.sendBookError(w, r, "failed to get the book", err, zap.Int64("book.id", id))
		return
	}
	logger.Info("success to get book", zap.Int64("book.id", id))
	resp := GenericResponse(requestID, http.StatusOK, "Book fetched successfully.", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

func (api *APIHandler) GetBookRatings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	rawID := ps.ByName("id")
	id, err := ParseBookID(rawID)
	if errors.Is(err, ErrBookNotFound) {
		api.sendBookError(w, r, "failed to get the book ratings", err, zap.String("book.id", rawID))
		return
	}
	if err != nil {
		api.sendBookError(w, r, "book id provided is not valid", err, zap.String("book.id", rawID))
		return
	}

	ratings, err := api.bookService.Ratings(r.Context(), id)
	if err != nil {
		api.sendBookError(w, r, "failed to get the book ratings", err, zap.Int64("book.id", id))
		return
	}
	total := len(ratings)
	resp := GenericResponse(requestID, http.StatusOK, "Book ratings fetched successfully.", &total, ratings)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

func (api *APIHandler) CountBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	count, err := api.bookService.Count(r.Context())
	if err != nil {
		api.sendBookError(w, r, "failed to count books", err)
		return
	}
	resp := GenericResponse(requestID, http.StatusOK, "Books counted successfully.", nil, map[string]int{"count": count})
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}
