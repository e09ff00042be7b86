package models

import (
	"encoding/json"
	"fmt"
)

// TopicAnimation is the data-channel topic the voice agent publishes UI
// commands on. Messages on any other topic never reach the dispatcher.
const TopicAnimation = "animation"

// Command types pushed by the voice agent.
const (
	CommandShowItem          = "show_item"
	CommandAddToCart         = "add_to_cart"
	CommandRemoveFromCart    = "remove_from_cart"
	CommandUpdateCart        = "update_cart"
	CommandClearCart         = "clear_cart"
	CommandOpenCart          = "open_cart"
	CommandNavigateToPayment = "navigate_to_payment"
	CommandNavigateToMenu    = "navigate_to_menu"
	CommandCancelPayment     = "cancel_payment"
	CommandCancelOrder       = "cancel_order"
)

// Command is the decoded form of one agent instruction. Exactly one of the
// variant structs below is returned by DecodeCommand.
type Command interface {
	CommandType() string
}

// ErrUnknownCommand is returned for a well-formed envelope whose type tag is
// not one of the recognized commands.
type ErrUnknownCommand struct {
	Type string
}

func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("unknown command type: %q", e.Type)
}

type ShowItemCommand struct {
	ImagePath string `json:"imagePath"`
	ItemName  string `json:"itemName"`
}

type AddToCartCommand struct {
	Item LineItem `json:"item"`
}

type RemoveFromCartCommand struct {
	ItemName string `json:"itemName"`
}

type UpdateCartCommand struct {
	Items []LineItem `json:"items"`
}

type ClearCartCommand struct{}

type OpenCartCommand struct{}

type NavigateToPaymentCommand struct{}

type NavigateToMenuCommand struct{}

type CancelPaymentCommand struct{}

type CancelOrderCommand struct {
	OrderID string `json:"orderId"`
}

func (ShowItemCommand) CommandType() string          { return CommandShowItem }
func (AddToCartCommand) CommandType() string         { return CommandAddToCart }
func (RemoveFromCartCommand) CommandType() string    { return CommandRemoveFromCart }
func (UpdateCartCommand) CommandType() string        { return CommandUpdateCart }
func (ClearCartCommand) CommandType() string         { return CommandClearCart }
func (OpenCartCommand) CommandType() string          { return CommandOpenCart }
func (NavigateToPaymentCommand) CommandType() string { return CommandNavigateToPayment }
func (NavigateToMenuCommand) CommandType() string    { return CommandNavigateToMenu }
func (CancelPaymentCommand) CommandType() string     { return CommandCancelPayment }
func (CancelOrderCommand) CommandType() string       { return CommandCancelOrder }

// commandEnvelope carries only the type tag; the payload fields are decoded a
// second time into the variant struct once the tag is known.
type commandEnvelope struct {
	Type string `json:"type"`
}

// DecodeCommand parses a single JSON command object into its typed variant.
// Malformed JSON, a missing or unknown type tag, and missing required fields
// are all rejected here so callers never see a partially valid command.
func DecodeCommand(data []byte) (Command, error) {
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse command envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("command has no type field")
	}

	switch env.Type {
	case CommandShowItem:
		var cmd ShowItemCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		if cmd.ImagePath == "" {
			return nil, fmt.Errorf("%s: imagePath is required", env.Type)
		}
		return cmd, nil

	case CommandAddToCart:
		var cmd AddToCartCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		if cmd.Item.Name == "" {
			return nil, fmt.Errorf("%s: item.name is required", env.Type)
		}
		if cmd.Item.Price < 0 {
			return nil, fmt.Errorf("%s: item.price must not be negative", env.Type)
		}
		return cmd, nil

	case CommandRemoveFromCart:
		var cmd RemoveFromCartCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		if cmd.ItemName == "" {
			return nil, fmt.Errorf("%s: itemName is required", env.Type)
		}
		return cmd, nil

	case CommandUpdateCart:
		var cmd UpdateCartCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		return cmd, nil

	case CommandClearCart:
		return ClearCartCommand{}, nil

	case CommandOpenCart:
		return OpenCartCommand{}, nil

	case CommandNavigateToPayment:
		return NavigateToPaymentCommand{}, nil

	case CommandNavigateToMenu:
		return NavigateToMenuCommand{}, nil

	case CommandCancelPayment:
		return CancelPaymentCommand{}, nil

	case CommandCancelOrder:
		var cmd CancelOrderCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		return cmd, nil

	default:
		return nil, &ErrUnknownCommand{Type: env.Type}
	}
}
