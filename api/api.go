package api

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/types"
    "github.com/aleph-zero/guardstack/service/identity"
    "github.com/aleph-zero/guardstack/service/registry"
    "github.com/aleph-zero/guardstack/service/script"
    "github.com/go-chi/chi/v5"
    "github.com/go-chi/render"
)

type contextKey string

const instanceKey contextKey = "stack"

/* *** Identity API *** */

type IdentityHandler struct {
    service identity.Service
}

func (h *IdentityHandler) GetIdentity(w http.ResponseWriter, r *http.Request) {
    data, err := json.Marshal(h.service.Identify())
    if err != nil {
        w.WriteHeader(http.StatusInternalServerError)
        return
    }
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusOK)
    w.Write(data)
}

func NewIdentityHandler(svc identity.Service) IdentityHandler {
    return IdentityHandler{service: svc}
}

/* *** Script API *** */

type ScriptHandler struct {
    service script.Service
}

func NewScriptHandler(svc script.Service) ScriptHandler {
    return ScriptHandler{service: svc}
}

func (h *ScriptHandler) Execute(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query().Get("q")
    result, err := h.service.Execute(r.Context(), q)
    if err != nil {
        render.Render(w, r, ErrInvalidRequest(err))
        return
    }

    render.Status(r, http.StatusOK)
    render.Render(w, r, &ScriptResponse{result})
}

type ScriptResponse struct {
    *script.Result
}

func (s *ScriptResponse) Render(w http.ResponseWriter, r *http.Request) error {
    return nil
}

/* *** Stack API *** */

type StackHandler struct {
    service registry.Service
}

func NewStackHandler(svc registry.Service) StackHandler {
    return StackHandler{service: svc}
}

// Routes mounts the stack endpoints under the router it is given.
func (h *StackHandler) Routes(r chi.Router) {
    r.Get("/", h.List)
    r.Route("/{name}", func(r chi.Router) {
        r.Put("/", h.Create)
        r.Delete("/", h.Destroy)
        r.Group(func(r chi.Router) {
            r.Use(h.StackContext)
            r.Get("/", h.Get)
            r.Post("/push", h.Push)
            r.Post("/pop", h.Pop)
            r.Get("/verify", h.Verify)
            r.Post("/fault", h.Fault)
        })
    })
}

// StackContext resolves the {name} URL parameter to a registered stack.
func (h *StackHandler) StackContext(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        var name string
        if name = chi.URLParam(r, "name"); name == "" {
            render.Render(w, r, ErrInvalidRequest(errors.New("missing stack name")))
            return
        }
        inst, err := h.service.Get(name)
        if err != nil {
            render.Render(w, r, ErrorResponse(err))
            return
        }
        ctx := context.WithValue(r.Context(), instanceKey, inst)
        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

func instanceFromContext(ctx context.Context) registry.Instance {
    return ctx.Value(instanceKey).(registry.Instance)
}

func (h *StackHandler) Create(w http.ResponseWriter, r *http.Request) {
    data := &CreateStackRequest{}
    if err := render.Bind(r, data); err != nil {
        render.Render(w, r, ErrInvalidRequest(err))
        return
    }

    inst, err := h.service.Create(r.Context(), chi.URLParam(r, "name"), *data.Type, data.Capacity)
    if err != nil {
        render.Render(w, r, ErrorResponse(err))
        return
    }

    render.Status(r, http.StatusCreated)
    render.Render(w, r, NewStackResponse(inst))
}

func (h *StackHandler) List(w http.ResponseWriter, r *http.Request) {
    render.Render(w, r, &StackListResponse{Stacks: h.service.Names()})
}

func (h *StackHandler) Get(w http.ResponseWriter, r *http.Request) {
    render.Render(w, r, NewStackResponse(instanceFromContext(r.Context())))
}

// Push accepts a single {"value": ...} object, an array of them, or a
// stream of them, and pushes the values in order.
func (h *StackHandler) Push(w http.ResponseWriter, r *http.Request) {
    inst := instanceFromContext(r.Context())

    pushed := 0
    err := ProcessJsonStream(r, func(req PushRequest) error {
        if err := req.Bind(r); err != nil {
            return err
        }
        if err := inst.Push(*req.Value); err != nil {
            return err
        }
        pushed++
        return nil
    })
    if err != nil {
        render.Render(w, r, ErrorResponse(err))
        return
    }

    render.Render(w, r, &PushResponse{Pushed: pushed, Size: inst.Snapshot().Size})
}

func (h *StackHandler) Pop(w http.ResponseWriter, r *http.Request) {
    v, err := instanceFromContext(r.Context()).Pop()
    if err != nil {
        render.Render(w, r, ErrorResponse(err))
        return
    }
    render.Render(w, r, &PopResponse{Value: v})
}

func (h *StackHandler) Verify(w http.ResponseWriter, r *http.Request) {
    d := instanceFromContext(r.Context()).Verify()
    render.Render(w, r, &VerifyResponse{Diagnosis: d, Healthy: d.OK()})
}

func (h *StackHandler) Fault(w http.ResponseWriter, r *http.Request) {
    data := &FaultRequest{}
    if err := render.Bind(r, data); err != nil {
        render.Render(w, r, ErrInvalidRequest(err))
        return
    }

    inst := instanceFromContext(r.Context())
    if err := inst.InjectFault(data.region, data.Offset, data.Value); err != nil {
        render.Render(w, r, ErrInvalidRequest(err))
        return
    }
    render.Render(w, r, NewStackResponse(inst))
}

func (h *StackHandler) Destroy(w http.ResponseWriter, r *http.Request) {
    if err := h.service.Destroy(r.Context(), chi.URLParam(r, "name")); err != nil {
        render.Render(w, r, ErrorResponse(err))
        return
    }
    render.NoContent(w, r)
}

/* *** Requests *** */

type CreateStackRequest struct {
    Type     *types.Type `json:"type"`
    Capacity int         `json:"capacity"`
}

func (c *CreateStackRequest) Bind(r *http.Request) error {
    if c.Type == nil {
        t := types.INTEGER
        c.Type = &t
    }
    if c.Capacity < 0 {
        return errors.New("capacity must not be negative")
    }
    return nil
}

type PushRequest struct {
    Value *string `json:"value"`
}

func (p *PushRequest) Bind(r *http.Request) error {
    if p.Value == nil {
        return ErrMissingValue
    }
    return nil
}

var ErrMissingValue = errors.New("missing required value")

type FaultRequest struct {
    Region string `json:"region"`
    Offset int    `json:"offset"`
    Value  byte   `json:"value"`
    region guard.Region
}

func (f *FaultRequest) Bind(r *http.Request) error {
    region, err := guard.ParseRegion(f.Region)
    if err != nil {
        return err
    }
    f.region = region
    return nil
}

/* *** Responses *** */

type StackResponse struct {
    Name     string          `json:"name"`
    Type     types.Type      `json:"type"`
    Snapshot engine.Snapshot `json:"snapshot"`
}

func NewStackResponse(inst registry.Instance) *StackResponse {
    return &StackResponse{Name: inst.Name(), Type: inst.Type(), Snapshot: inst.Snapshot()}
}

func (s *StackResponse) Render(w http.ResponseWriter, r *http.Request) error {
    return nil
}

type StackListResponse struct {
    Stacks []string `json:"stacks"`
}

func (s *StackListResponse) Render(w http.ResponseWriter, r *http.Request) error {
    return nil
}

type PushResponse struct {
    Pushed int `json:"pushed"`
    Size   int `json:"size"`
}

func (p *PushResponse) Render(w http.ResponseWriter, r *http.Request) error {
    return nil
}

type PopResponse struct {
    Value string `json:"value"`
}

func (p *PopResponse) Render(w http.ResponseWriter, r *http.Request) error {
    return nil
}

type VerifyResponse struct {
    Diagnosis engine.Diagnosis `json:"diagnosis"`
    Healthy   bool             `json:"healthy"`
}

func (v *VerifyResponse) Render(w http.ResponseWriter, r *http.Request) error {
    return nil
}
