// Package metrics описывает счётчики Prometheus и HTTP-эндпоинт /metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	RatingRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rating_records_total",
		Help: "Количество принятых изменений рейтинга",
	})
	RatingUndoTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rating_undo_total",
		Help: "Количество отменённых изменений рейтинга",
	})
	RatingRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rating_rejected_total",
		Help: "Отклонённые изменения рейтинга по причинам",
	}, []string{"reason"})
	ModerationEnforcementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_enforcements_total",
		Help: "Действия модерации по стадиям и исходам",
	}, []string{"stage", "outcome"})
	CASRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_requests_total",
		Help: "Запросы к CAS по статусу",
	}, []string{"status"})
	BotSendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Ошибки отправки сообщений ботом",
	})
)

// Register регистрирует все счётчики в дефолтном реестре.
func Register() {
	prometheus.MustRegister(
		RatingRecordsTotal,
		RatingUndoTotal,
		RatingRejectedTotal,
		ModerationEnforcementsTotal,
		CASRequestsTotal,
		BotSendErrors,
	)
}

// Serve запускает HTTP-сервер с /metrics и останавливает его по отмене контекста.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Сервер метрик запущен")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Сервер метрик завершился с ошибкой")
	}
}
