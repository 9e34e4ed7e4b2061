package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type translationJob struct {
	id   string
	seq  uint64
	text string
}

// dispatch routes the best hypothesis either straight to the overlay or
// through an asynchronous translation job.
func (l *RecognitionLoop) dispatch(text string) {
	if !l.cfg.Translate || l.translator == nil {
		pos := l.placer.Direct()
		l.overlay.DrawBalloon(pos.X, pos.Y, l.cfg.BalloonColor, text)
		return
	}

	l.jobSeq++
	job := translationJob{id: uuid.NewString(), seq: l.jobSeq, text: text}
	l.logger.Debug("translation submitted", "job_id", job.id, "seq", job.seq)
	go l.runTranslation(l.ctx, job)
}

func (l *RecognitionLoop) runTranslation(ctx context.Context, job translationJob) {
	translated, err := l.translator.Translate(ctx, job.text)
	if err != nil {
		l.logger.Warn("translation dropped", "job_id", job.id, "error", err)
		return
	}
	l.post(func() { l.completeTranslation(job, translated) })
}

func (l *RecognitionLoop) completeTranslation(job translationJob, translated string) {
	if strings.TrimSpace(translated) == "" {
		l.logger.Debug("translation empty", "job_id", job.id)
		return
	}
	if l.cfg.DiscardStale && job.seq < l.drawnSeq {
		l.logger.Debug("translation superseded", "job_id", job.id, "seq", job.seq, "drawn_seq", l.drawnSeq)
		return
	}
	if job.seq > l.drawnSeq {
		l.drawnSeq = job.seq
	}

	pos := l.placer.Translated()
	l.overlay.DrawBalloon(pos.X, pos.Y, l.cfg.BalloonColor, translated)
}
