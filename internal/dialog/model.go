package dialog

type State string

const (
	StateIdle State = "idle"

	// Приёмка материалов по PO
	StateRcvSearch State = "rcv_search"  // ввод номера PO / клиента
	StateRcvPickPO State = "rcv_pick_po" // выбор PO из найденных
	StateRcvCard   State = "rcv_card"    // карточка PO: остатки по строкам
	StateRcvPickWh State = "rcv_pick_wh" // выбор склада
	StateRcvQty    State = "rcv_qty"     // ввод количества

	// Импорт оригиналов PO (админ)
	StatePOImportFile State = "po_import_file"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}
