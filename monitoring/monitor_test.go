package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/mmbridge/sim"
	"go.uber.org/mock/gomock"
)

type sampleComponent struct {
	name   string
	Cycles uint64
	Busy   bool
}

func (c *sampleComponent) Name() string {
	return c.name
}

var _ = Describe("Monitor", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		m        *Monitor
		router   http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterComponent(&sampleComponent{name: "Bench", Cycles: 42})
		m.RegisterComponent(&sampleComponent{name: "Bench.Bridge"})
		router = m.Router()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should report the current time", func() {
		engine.EXPECT().CurrentTime().Return(sim.VTimeInSec(1.5e-9))

		rec := get("/api/now")

		var rsp map[string]float64
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp["now"]).To(BeNumerically("~", 1.5e-9, 1e-12))
	})

	It("should pause and continue the engine", func() {
		engine.EXPECT().Pause()
		engine.EXPECT().Continue()

		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))
	})

	It("should list components", func() {
		rec := get("/api/list_components")

		var names []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(Equal([]string{"Bench", "Bench.Bridge"}))
	})

	It("should serialize a component", func() {
		rec := get("/api/component/Bench")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Cycles"))
	})

	It("should return 404 for unknown components", func() {
		Expect(get("/api/component/GPU").Code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		rec := get("/api/field/" + url.PathEscape("{not json"))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("Transactions", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)

		var bars []ProgressBarStatus
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
			To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Finished).To(Equal(uint64(2)))
		Expect(bars[0].InProgress).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)

		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
			To(Succeed())
		Expect(bars).To(BeEmpty())
	})

	It("should report resource usage", func() {
		rec := get("/api/resource")

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a profile", func() {
		m.profileTime = 10 * time.Millisecond

		rec := get("/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
	})

	It("should serve on a random port", func() {
		port, err := m.WithPortNumber(80).StartServer()
		Expect(err).NotTo(HaveOccurred())
		defer m.StopServer()

		rsp, err := http.Get(
			"http://localhost:" + strconv.Itoa(port) + "/api/list_components")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("Bench.Bridge"))
	})
})
