package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/heatbox/apimodel"
	"github.com/jypelle/heatbox/internal/srv/config"
	"github.com/jypelle/heatbox/internal/srv/event"
	"github.com/jypelle/heatbox/internal/srv/metrics"
	"github.com/jypelle/heatbox/internal/tool"
	"github.com/sirupsen/logrus"
)

// ImageSource gives access to the frame currently shown.
type ImageSource interface {
	LastImage() image.Image
}

type Api struct {
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config *config.ServerConfig
	screen ImageSource
}

func NewApi(config *config.ServerConfig, screen ImageSource) *Api {
	api := Api{
		config:       config,
		screen:       screen,
		eventChannel: make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)
	api.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						GlobalErrorAction(w, fmt.Sprintf("%v", rec), http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := config.ServerParam.ApiParam.ApiKey
				if apiKey == "" || r.Header.Get("x-api-key") != apiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/status",
		func(w http.ResponseWriter, r *http.Request) {
			result, err := api.send(r.Context(), event.ApiEventStatusData{})
			if err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(result.Status); err != nil {
				logrus.Warnf("Unable to encode status: %v", err)
			}
		}).Methods("GET")
	api.apiRouter.HandleFunc("/display",
		func(w http.ResponseWriter, r *http.Request) {
			img := api.screen.LastImage()
			if img == nil {
				ErrorStatusAction(w, r, http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			if err := png.Encode(w, img); err != nil {
				logrus.Warnf("Unable to encode display frame: %v", err)
			}
		}).Methods("GET")
	api.apiRouter.HandleFunc("/knob/rotate/{delta}",
		func(w http.ResponseWriter, r *http.Request) {
			if !config.SimulationMode {
				apimodel.KnobUnavailableErrorMessage.SendError(w)
				return
			}
			delta, err := strconv.ParseInt(mux.Vars(r)["delta"], 10, 64)
			if err != nil {
				apimodel.WrongParametersErrorMessage.SendError(w)
				return
			}
			api.reply(w, r, event.ApiEventKnobRotateData{Detents: delta})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/knob/press",
		func(w http.ResponseWriter, r *http.Request) {
			if !config.SimulationMode {
				apimodel.KnobUnavailableErrorMessage.SendError(w)
				return
			}
			api.reply(w, r, event.ApiEventKnobPressData{})
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

var errLoopUnavailable = errors.New("control loop unavailable")

// send hands data to the event loop and waits for its answer.
func (d *Api) send(ctx context.Context, data interface{}) (event.ApiResult, error) {
	result := make(chan event.ApiResult, 1)
	select {
	case d.eventChannel <- event.ApiEvent{Result: result, Data: data}:
	case <-ctx.Done():
		return event.ApiResult{}, errLoopUnavailable
	}
	select {
	case res := <-result:
		return res, res.Err
	case <-ctx.Done():
		return event.ApiResult{}, errLoopUnavailable
	}
}

func (d *Api) reply(w http.ResponseWriter, r *http.Request, data interface{}) {
	if _, err := d.send(r.Context(), data); err != nil {
		GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	ErrorStatusAction(w, r, http.StatusOK)
}

func (d *Api) Handler() http.Handler {
	return d.server.Handler
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	existServerCert, err := tool.IsFileExists(d.config.GetCompleteCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.config.GetCompleteCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.config.GetCompleteKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.config.GetCompleteKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateTlsCertificate(
			"jypelle",
			"Heatbox Server",
			d.config.GetCompleteKeyFilename(),
			d.config.GetCompleteCertFilename(),
			d.config.CertHostnames())
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.config.GetCompleteCertFilename(), d.config.GetCompleteKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logrus.Warnf("Unable to shutdown api server: %v", err)
	}
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	apimodel.ErrorMessage{ErrStatusCode: status}.SendError(w)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	apimodel.ErrorMessage{ErrStatusCode: status, ErrMessage: message}.SendError(w)
}
