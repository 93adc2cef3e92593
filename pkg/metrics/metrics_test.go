package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pulseworks/rppg/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithRegistry(reg))

		Convey("Then it should be created successfully", func() {
			So(m, ShouldNotBeNil)
		})

		Convey("Then the registry should expose the pipeline metrics", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)

			names := make(map[string]bool, len(families))
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["rppg_pipeline_frames_processed_total"], ShouldBeTrue)
			So(names["rppg_pipeline_signal_buffer_length"], ShouldBeTrue)
			So(names["rppg_pipeline_estimates_emitted_total"], ShouldBeTrue)
		})
	})

	Convey("Given the global metrics helpers", t, func() {
		Convey("When recording pipeline activity", func() {
			So(func() {
				metrics.RecordFrameProcessed()
				metrics.RecordDetectionMiss()
				metrics.UpdateTrackingState(1)
				metrics.RecordSampleAppended()
				metrics.UpdateBufferLength(42)
				metrics.RecordEstimateSkipped("short_segment")
				metrics.UpdateRawBpm(72)
				metrics.RecordStageLatency("extract", 0.5)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry should be available", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})
	})
}
