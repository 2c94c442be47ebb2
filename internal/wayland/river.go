package wayland

// StatusManagerInterface is the registry name of zriver_status_manager_v1.
const StatusManagerInterface = "zriver_status_manager_v1"

// StatusManager is the zriver_status_manager_v1 global.
type StatusManager struct {
	proxy
}

// BindStatusManager binds a zriver_status_manager_v1 global.
func (r *Registry) BindStatusManager(name, version uint32) (*StatusManager, error) {
	return bind(r, name, StatusManagerInterface, version, func(p proxy) *StatusManager { return &StatusManager{proxy: p} })
}

// Destroy destroys the status manager.
func (m *StatusManager) Destroy() error {
	return m.destructor(0)
}

// GetOutputStatus subscribes to the tag state of output.
func (m *StatusManager) GetOutputStatus(output *Output) (*OutputStatus, error) {
	s := newChild(&m.proxy, func(p proxy) *OutputStatus { return &OutputStatus{proxy: p} })
	return s, m.request(1, s, output)
}

func (m *StatusManager) dispatch(opcode uint16, _ *decoder) error {
	return &UnknownOpcodeError{Interface: StatusManagerInterface, Opcode: opcode}
}

// OutputStatus is a zriver_output_status_v1.
type OutputStatus struct {
	proxy
	focusedTags func(OutputStatusFocusedTagsEvent)
	viewTags    func(OutputStatusViewTagsEvent)
	urgentTags  func(OutputStatusUrgentTagsEvent)
}

// OutputStatusFocusedTagsEvent carries the focused tags of the output.
type OutputStatusFocusedTagsEvent struct {
	Tags uint32
}

// OutputStatusViewTagsEvent carries the tags of every view on the output.
type OutputStatusViewTagsEvent struct {
	Tags []uint32
}

// OutputStatusUrgentTagsEvent carries the tags holding an urgent view. Version 2 only.
type OutputStatusUrgentTagsEvent struct {
	Tags uint32
}

// SetFocusedTagsHandler sets the handler for the focused_tags event.
func (s *OutputStatus) SetFocusedTagsHandler(f func(OutputStatusFocusedTagsEvent)) {
	s.focusedTags = f
}

// SetViewTagsHandler sets the handler for the view_tags event.
func (s *OutputStatus) SetViewTagsHandler(f func(OutputStatusViewTagsEvent)) {
	s.viewTags = f
}

// SetUrgentTagsHandler sets the handler for the urgent_tags event.
func (s *OutputStatus) SetUrgentTagsHandler(f func(OutputStatusUrgentTagsEvent)) {
	s.urgentTags = f
}

// Destroy destroys the subscription.
func (s *OutputStatus) Destroy() error {
	return s.destructor(0)
}

func (s *OutputStatus) dispatch(opcode uint16, dec *decoder) error {
	switch opcode {
	case 0:
		e := OutputStatusFocusedTagsEvent{Tags: dec.Uint32()}
		if dec.err == nil && s.focusedTags != nil {
			s.focusedTags(e)
		}
	case 1:
		e := OutputStatusViewTagsEvent{Tags: dec.Uint32Array()}
		if dec.err == nil && s.viewTags != nil {
			s.viewTags(e)
		}
	case 2:
		e := OutputStatusUrgentTagsEvent{Tags: dec.Uint32()}
		if dec.err == nil && s.urgentTags != nil {
			s.urgentTags(e)
		}
	default:
		return &UnknownOpcodeError{Interface: "zriver_output_status_v1", Opcode: opcode}
	}
	return nil
}
